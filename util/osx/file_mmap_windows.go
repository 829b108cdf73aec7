//go:build windows

package osx

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

func mmap(f *os.File, length int) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}

	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, uint32(length), nil)
	if err != nil {
		return nil, os.NewSyscallError("CreateFileMapping", err)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ, 0, 0, uintptr(length))
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, os.NewSyscallError("MapViewOfFile", err)
	}
	_ = windows.CloseHandle(h)

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length), nil
}

func munmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&b[0])))
}
