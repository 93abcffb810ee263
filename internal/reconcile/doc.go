// Package reconcile decides whether a generated summary is a new
// knowledge-base article or an update to an existing one, and delivers the
// result as a pull request.
//
// A run moves through a fixed sequence of stages:
//
//	locate -> branch -> content -> write -> pr
//
// locate lists the article directory on the default branch and picks an
// exact or fuzzy match for the summary's slug. branch creates a uniquely
// named branch from the default branch head. content either merges the
// summary into the matched article or renders a fresh one. write commits
// the document and pr opens the pull request.
//
// Any failure stops the run and is returned as a *StageError naming the
// stage. Nothing is rolled back: a branch created before a later failure
// is left in place. Only a missing article directory at locate is
// tolerated, and it means there are no articles yet.
package reconcile
