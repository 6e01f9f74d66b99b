// Package archiver drives one archive run: for each username it loads the
// profile document, persists the first page, then walks the remaining pages
// and persists each batch as it arrives.
//
// A profile whose document cannot be fetched or extracted produces no
// output. A failing page stops paging for that profile; everything already
// persisted stays on disk and the error is reported. Several profiles run
// concurrently up to archive.parallel_profiles; they share only the HTTP
// client and the metrics collector.
package archiver
