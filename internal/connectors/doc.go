// Package connectors holds the adapters that read documents from where they
// live. The filesystem connector enumerates and reads a data directory and
// watches it for changes.
package connectors
