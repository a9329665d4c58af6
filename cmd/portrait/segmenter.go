package main

import (
	"context"
	"image"
	"sync"

	"github.com/user/portrait/pkg/ports"
)

// lazySegmenter defers building the real segmenter until a batch has work.
type lazySegmenter struct {
	build func() (ports.Segmenter, func() error, error)

	once    sync.Once
	seg     ports.Segmenter
	closeFn func() error
	err     error
}

func newLazySegmenter(build func() (ports.Segmenter, func() error, error)) *lazySegmenter {
	return &lazySegmenter{build: build}
}

// Open builds the underlying segmenter once and returns the build error, if any.
func (l *lazySegmenter) Open() error {
	l.once.Do(func() {
		l.seg, l.closeFn, l.err = l.build()
	})
	return l.err
}

func (l *lazySegmenter) Segment(ctx context.Context, img image.Image) (image.Image, error) {
	if err := l.Open(); err != nil {
		return nil, err
	}
	return l.seg.Segment(ctx, img)
}

// Close releases the underlying segmenter if it was built.
func (l *lazySegmenter) Close() error {
	if l.closeFn == nil {
		return nil
	}
	return l.closeFn()
}
