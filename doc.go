// Package filetype identifies file formats from their names or their
// content.
//
// Content detection runs an ordered signature database against a
// [content.Stream], which reads only the bytes a signature asks for when the
// input can seek, and captures the input in memory when it cannot.
//
// # Basic Usage
//
//	info, err := filetype.DetectFromFilePath("upload.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(info.Extension(), info.FileType(), info.MIMEType())
//
// DetectFromFilePath checks content first and falls back to the file
// extension. [Info.FromFileName] reports which of the two answered.
//
// # Detectors
//
// A [Detector] carries a signature database, a logger, an optional result
// cache and the unwrap setting:
//
//	rules, err := signature.LoadFile("signatures.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d := filetype.New(
//	    filetype.WithRules(rules...),
//	    filetype.WithUnwrap(1<<20),
//	    filetype.WithCache(filetype.NewMemoryCache(filetype.WithMaxEntries(10000)), 10*time.Minute),
//	    filetype.WithLogger(slog.Default()),
//	)
//
// With unwrapping enabled, the payload of gzip, zstd, lz4 and bzip2 files is
// decompressed and detected as well; see [Info.Inner].
//
// # Sources
//
// Anything with a Read(ctx, path) method can be passed to
// [Detector.DetectSource]. The scan, watch and remote/s3 packages build on
// the same Detector for directory trees, live directories and object
// storage.
//
// # Error Handling
//
// Detection failures wrap [ErrNotDetected]; use [IsNotDetected] to check.
// Errors tied to a path are returned as [*PathError].
package filetype
