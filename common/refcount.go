// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

// RefCount is a reference counted resource.
//
// The first Get enables the resource and the Put that brings the count back
// to zero disables it. RefCount is not safe for concurrent use, the owner
// serializes calls with its own mutex.
type RefCount struct {
	Enable  func() error
	Disable func() error

	count int
}

// Get takes a reference. If enabling the resource fails, the reference is
// dropped again and the error is returned.
func (r *RefCount) Get() error {
	r.count++
	if r.count > 1 || r.Enable == nil {
		return nil
	}
	if err := r.Enable(); err != nil {
		r.count--
		return err
	}
	return nil
}

// Put releases a reference.
//
// Releasing more references than were taken clamps the count to zero and
// returns ErrRefCountFault without touching the resource.
func (r *RefCount) Put() error {
	r.count--
	if r.count > 0 {
		return nil
	}
	if r.count < 0 {
		r.count = 0
		return ErrRefCountFault
	}
	if r.Disable == nil {
		return nil
	}
	return r.Disable()
}

// Count returns the number of references held.
func (r *RefCount) Count() int {
	return r.count
}
