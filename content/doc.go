// Package content provides Stream, the random-access byte view that
// signature matching runs against.
//
// A Stream presents files, seekable readers and forward-only readers
// through one offset-addressed API:
//
//	s, err := content.Open("photo.jpg")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	s.CheckBytes(0, content.Bytes(0xFF, 0xD8, 0xFF))     // exact match at offset 0
//	s.CheckBytes(-2, content.Bytes(0xFF, 0xD9))          // negative offsets count from the end
//	s.Find(0, content.Text("Exif"), content.MaxDepth(64)) // search offsets 1..64
//
// Bytes of seekable sources are read on first use and cached; forward-only
// readers are drained when the Stream is built so every offset stays
// addressable.
package content
