// Package testutil holds the shared fixtures wsp's tests build on: tiny
// real git repositories (CreateRepoWithCommit, CloneToBare), hermetic git
// invocation (RunGit, RunGitOutput), and must-style filesystem helpers.
//
// Every helper calls t.Helper() and fails the test immediately on error,
// so test bodies read as straight-line scenario setup.
package testutil
