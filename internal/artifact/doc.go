// Package artifact downloads and unpacks the CoreOS OVA before it is uploaded
// to a content library.
//
// A [Pipeline] streams a URL to disk and extracts tar archives, optionally
// compressed with gzip, zstd or lz4, reporting byte-level progress to a
// [Progress] sink. [LocateRequiredFiles] finds the disk and descriptor files
// among the extracted entries and [Workspace] scopes the temporary directory
// everything is written to.
package artifact
