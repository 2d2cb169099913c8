// Package fileutil provides candidate discovery for the routing pipeline.
//
// The package walks an acquisition tree and returns the instrument signal
// files that have not been routed yet. It is the only place that decides
// which paths are candidates, so the scan rules live here together with the
// ProcessedSet that makes repeated scans idempotent.
//
// # Scan Rules
//
//   - The root directory is always descended.
//   - Any other directory whose path contains one of the exclude markers
//     (DEFAULT, SNAPSHOT, DEMO; case-sensitive) is pruned with its subtree.
//   - A file is a candidate when its lower-cased path contains ".ch".
//   - Candidates rejected by CandidateOptions.Skip are dropped. The processing
//     loop wires Skip to ProcessedSet.Contains.
//
// Note that markers and the ".ch" substring are matched against the whole
// walked path, not only the entry name.
//
// # Error Tolerance
//
// A directory that cannot be listed does not stop the scan. It is recorded in
// ScanResult.Errors as a ScanError and its subtree is skipped. Only an
// inaccessible root makes ScanCandidates return an error.
//
// # Ordering
//
// Files are returned in filepath.WalkDir order (lexical per directory). The
// order is fresh on every call and callers must not depend on it.
//
// # Usage
//
//	processed := fileutil.NewProcessedSet()
//	result, err := fileutil.ScanCandidates("/data", fileutil.DefaultCandidateOptions(processed))
//	if err != nil {
//	    return err
//	}
//	for _, path := range result.Files {
//	    // route path, then:
//	    processed.Add(path)
//	}
package fileutil
