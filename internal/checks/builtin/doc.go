// Package builtin registers the checks shipped with repoguardian. Import it
// for side effects:
//
//	import _ "repoguardian/internal/checks/builtin"
package builtin
