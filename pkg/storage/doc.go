// Package storage writes the per-account archive layout:
//
//	<base>/<username>/profile_pic.jpg
//	<base>/<username>/description.json
//	<base>/<username>/<basename>_<index><ext>
//	<base>/<username>/<basename>_thumb<ext>
//	<base>/<username>/<basename>.txt
//	<base>/<username>/<basename>.json
//
// Every file is written to a temporary name and renamed into place. Two posts
// taken in the same second would share a basename; the later one to claim it
// gets its post id appended.
package storage
