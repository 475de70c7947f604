// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains the primitives shared by the hardware cores: the
// error taxonomy, reference counted resources, single slot completions and
// interrupt line watching.
package common
