// Package paths resolves where gadgeto keeps its files on disk.
package paths
