//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2025 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package residency

// RamClass records which representation currently holds a buffer's
// authoritative bytes.
type RamClass uint8

const (
	// RamClassResident means the full uncompressed payload is in memory.
	RamClassResident RamClass = iota
	// RamClassCompressed means the payload is held compressed in memory.
	RamClassCompressed
	// RamClassDisk means the uncompressed payload was spilled to the disk
	// store and no bytes are held in memory.
	RamClassDisk
	// RamClassCompressedDisk means the compressed payload was spilled to
	// the disk store and no bytes are held in memory.
	RamClassCompressedDisk
)

func (rc RamClass) String() string {
	switch rc {
	case RamClassResident:
		return "resident"
	case RamClassCompressed:
		return "compressed"
	case RamClassDisk:
		return "disk"
	case RamClassCompressedDisk:
		return "compressed_disk"
	default:
		return "unknown"
	}
}

func (rc RamClass) onDisk() bool {
	return rc == RamClassDisk || rc == RamClassCompressedDisk
}

// UsageHint describes how often a consumer expects the buffer contents to
// change, so derived resources can be placed accordingly.
type UsageHint uint8

const (
	// UsageHintClient : the data lives on the client and changes every frame.
	UsageHintClient UsageHint = iota
	// UsageHintStream : the data is rendered a few times per upload.
	UsageHintStream
	// UsageHintDynamic : the data changes occasionally.
	UsageHintDynamic
	// UsageHintStatic : the data is uploaded once and rendered many times.
	UsageHintStatic
)

func (uh UsageHint) String() string {
	switch uh {
	case UsageHintClient:
		return "client"
	case UsageHintStream:
		return "stream"
	case UsageHintDynamic:
		return "dynamic"
	case UsageHintStatic:
		return "static"
	default:
		return "unknown"
	}
}
