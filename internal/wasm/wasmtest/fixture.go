// Package wasmtest provides hand-assembled wasm modules for host-side tests.
package wasmtest

// FixtureBufferPointer is the fixed buffer address used by FrameFixture.
const FixtureBufferPointer = 1024

// FixtureBudget is the largest buffer FrameFixture accepts, in bytes.
const FixtureBudget = 4096

// FrameFixture returns a small module implementing the frame export
// surface. It exports memory (1 page, growable) and:
//
//	initialize(w, h i32) -> i32   1024, or 0 when w*h*4 > 4096
//	advance_frame()               frame++, fill buffer with byte(frame)
//	buffer_pointer() -> i32
//	buffer_length() -> i32
//	the_answer() -> i32           42
//	select_pattern(id i32) -> i32 id < 3
//	grow_memory() -> i32          memory.grow 1 (test hook)
func FrameFixture() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, // magic: \0asm
		0x01, 0x00, 0x00, 0x00, // version: 1

		// Type section (id=1): 4 types, content=19 bytes
		0x01, 0x13,
		0x04,
		0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // type 0: (i32, i32) -> (i32)
		0x60, 0x00, 0x00, // type 1: () -> ()
		0x60, 0x00, 0x01, 0x7f, // type 2: () -> (i32)
		0x60, 0x01, 0x7f, 0x01, 0x7f, // type 3: (i32) -> (i32)

		// Function section (id=3): 7 functions, content=8 bytes
		0x03, 0x08,
		0x07,
		0x00, // initialize
		0x01, // advance_frame
		0x02, // buffer_pointer
		0x02, // buffer_length
		0x02, // the_answer
		0x03, // select_pattern
		0x02, // grow_memory

		// Memory section (id=5): content=3 bytes
		0x05, 0x03,
		0x01,       // 1 memory
		0x00, 0x01, // min=1, no max

		// Global section (id=6): 3 mutable i32 globals = 0, content=16 bytes
		0x06, 0x10,
		0x03,
		0x7f, 0x01, 0x41, 0x00, 0x0b, // g0: ptr
		0x7f, 0x01, 0x41, 0x00, 0x0b, // g1: len
		0x7f, 0x01, 0x41, 0x00, 0x0b, // g2: frame

		// Export section (id=7): 8 exports, content=116 bytes
		0x07, 0x74,
		0x08,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
		0x0a, 'i', 'n', 'i', 't', 'i', 'a', 'l', 'i', 'z', 'e', 0x00, 0x00,
		0x0d, 'a', 'd', 'v', 'a', 'n', 'c', 'e', '_', 'f', 'r', 'a', 'm', 'e', 0x00, 0x01,
		0x0e, 'b', 'u', 'f', 'f', 'e', 'r', '_', 'p', 'o', 'i', 'n', 't', 'e', 'r', 0x00, 0x02,
		0x0d, 'b', 'u', 'f', 'f', 'e', 'r', '_', 'l', 'e', 'n', 'g', 't', 'h', 0x00, 0x03,
		0x0a, 't', 'h', 'e', '_', 'a', 'n', 's', 'w', 'e', 'r', 0x00, 0x04,
		0x0e, 's', 'e', 'l', 'e', 'c', 't', '_', 'p', 'a', 't', 't', 'e', 'r', 'n', 0x00, 0x05,
		0x0b, 'g', 'r', 'o', 'w', '_', 'm', 'e', 'm', 'o', 'r', 'y', 0x00, 0x06,

		// Code section (id=10): 7 bodies, content=98 bytes
		0x0a, 0x62,
		0x07,

		// initialize: body=47 bytes
		0x2f,
		0x01, 0x01, 0x7f, // 1 local i32
		0x20, 0x00, // local.get 0
		0x20, 0x01, // local.get 1
		0x6c,       // i32.mul
		0x41, 0x04, // i32.const 4
		0x6c,       // i32.mul
		0x22, 0x02, // local.tee 2
		0x41, 0x80, 0x20, // i32.const 4096
		0x4b,       // i32.gt_u
		0x04, 0x40, // if
		0x41, 0x00, 0x24, 0x00, // ptr = 0
		0x41, 0x00, 0x24, 0x01, // len = 0
		0x41, 0x00, 0x0f, // return 0
		0x0b,             // end
		0x41, 0x80, 0x08, 0x24, 0x00, // ptr = 1024
		0x20, 0x02, 0x24, 0x01, // len = local 2
		0x41, 0x00, 0x24, 0x02, // frame = 0
		0x23, 0x00, // global.get 0
		0x0b,

		// advance_frame: body=18 bytes
		0x12,
		0x00,
		0x23, 0x02, 0x41, 0x01, 0x6a, 0x24, 0x02, // frame++
		0x23, 0x00, // dst
		0x23, 0x02, // value
		0x23, 0x01, // len
		0xfc, 0x0b, 0x00, // memory.fill
		0x0b,

		// buffer_pointer: body=4 bytes
		0x04, 0x00, 0x23, 0x00, 0x0b,

		// buffer_length: body=4 bytes
		0x04, 0x00, 0x23, 0x01, 0x0b,

		// the_answer: body=4 bytes
		0x04, 0x00, 0x41, 0x2a, 0x0b,

		// select_pattern: body=7 bytes
		0x07, 0x00, 0x20, 0x00, 0x41, 0x03, 0x49, 0x0b,

		// grow_memory: body=6 bytes
		0x06, 0x00, 0x41, 0x01, 0x40, 0x00, 0x0b,
	}
}

// BareFixture returns a module that exports memory and a single function
// missing most of the frame surface.
func BareFixture() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,

		// Type section: () -> (i32)
		0x01, 0x05,
		0x01,
		0x60, 0x00, 0x01, 0x7f,

		// Function section
		0x03, 0x02,
		0x01, 0x00,

		// Memory section
		0x05, 0x03,
		0x01, 0x00, 0x01,

		// Export section: "memory", "the_answer"
		0x07, 0x17,
		0x02,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
		0x0a, 't', 'h', 'e', '_', 'a', 'n', 's', 'w', 'e', 'r', 0x00, 0x00,

		// Code section: return 7
		0x0a, 0x06,
		0x01,
		0x04, 0x00, 0x41, 0x07, 0x0b,
	}
}

// FloatFixture returns a module whose initialize export takes f64
// parameters and whose advance_frame uses an externref result, breaking the
// numeric-only contract.
func FloatFixture() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,

		// Type section: 3 types, content=15 bytes
		0x01, 0x0f,
		0x03,
		0x60, 0x02, 0x7c, 0x7c, 0x01, 0x7f, // type 0: (f64, f64) -> (i32)
		0x60, 0x00, 0x01, 0x6f, // type 1: () -> (externref)
		0x60, 0x00, 0x01, 0x7f, // type 2: () -> (i32)

		// Function section: 4 functions
		0x03, 0x05,
		0x04, 0x00, 0x01, 0x02, 0x02,

		// Export section: 4 exports, content=63 bytes
		0x07, 0x3f,
		0x04,
		0x0a, 'i', 'n', 'i', 't', 'i', 'a', 'l', 'i', 'z', 'e', 0x00, 0x00,
		0x0d, 'a', 'd', 'v', 'a', 'n', 'c', 'e', '_', 'f', 'r', 'a', 'm', 'e', 0x00, 0x01,
		0x0e, 'b', 'u', 'f', 'f', 'e', 'r', '_', 'p', 'o', 'i', 'n', 't', 'e', 'r', 0x00, 0x02,
		0x0d, 'b', 'u', 'f', 'f', 'e', 'r', '_', 'l', 'e', 'n', 'g', 't', 'h', 0x00, 0x03,

		// Code section: 4 bodies, content=21 bytes
		0x0a, 0x15,
		0x04,
		0x04, 0x00, 0x41, 0x00, 0x0b, // return 0
		0x04, 0x00, 0xd0, 0x6f, 0x0b, // ref.null extern
		0x04, 0x00, 0x41, 0x00, 0x0b,
		0x04, 0x00, 0x41, 0x00, 0x0b,
	}
}
