package imagesource

import (
	"strconv"
	"sync"
)

// DisplayStore holds the image currently shown to the user. Exactly one image
// is live at a time: putting a new one releases the previous one's pixel
// buffer, so a long session of repeated selections never accumulates old
// imagery in memory.
type DisplayStore struct {
	lock     sync.Mutex
	current  *Image
	nextKey  int64
	released int64
}

func NewDisplayStore() *DisplayStore {
	return &DisplayStore{
		nextKey: 1,
	}
}

// Put installs img as the displayed image, assigns it a key, and releases
// the previously displayed image. Returns img for convenience.
func (d *DisplayStore) Put(img *Image) *Image {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.releaseLocked()
	img.Key = "img-" + strconv.FormatInt(d.nextKey, 10)
	d.nextKey++
	d.current = img
	return img
}

// Current returns the displayed image, or nil if none
func (d *DisplayStore) Current() *Image {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.current
}

// Clear releases the displayed image
func (d *DisplayStore) Clear() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.releaseLocked()
	d.current = nil
}

// ReleasedCount returns the number of images released so far
func (d *DisplayStore) ReleasedCount() int64 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.released
}

func (d *DisplayStore) releaseLocked() {
	if d.current != nil {
		d.current.Data = nil
		d.released++
	}
}
