// Package filesystem reads source documents from a local directory and
// watches that directory for changes.
//
// Only the direct entries of a directory are considered; subdirectories are
// reported but never descended into.
package filesystem
