package room

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

const (
	audioFrame = 20 * time.Millisecond
	videoFrame = 33 * time.Millisecond
)

// publishLocalMedia publishes the configured camera and microphone files.
// Failures are logged; the room stays joined without local media.
func (c *Client) publishLocalMedia(room *lksdk.Room) {
	if c.opts.CameraFile != "" {
		err := c.publishFile(room, c.opts.CameraFile, videoFrame, livekit.TrackSource_CAMERA, func() {
			c.store.SetCamera(false, c.opts.CameraDimensions)
		})
		if err != nil {
			c.logger.Warn("camera publish failed", "file", c.opts.CameraFile, "err", err)
		} else {
			c.store.SetCamera(true, c.opts.CameraDimensions)
		}
	}

	if c.opts.MicFile != "" {
		if err := c.publishFile(room, c.opts.MicFile, audioFrame, livekit.TrackSource_MICROPHONE, nil); err != nil {
			c.logger.Warn("microphone publish failed", "file", c.opts.MicFile, "err", err)
		}
	}
}

func (c *Client) publishFile(room *lksdk.Room, filename string, frame time.Duration, source livekit.TrackSource, onDone func()) error {
	var pub atomic.Pointer[lksdk.LocalTrackPublication]

	track, err := lksdk.NewLocalFileTrack(filename,
		lksdk.ReaderTrackWithFrameDuration(frame),
		lksdk.ReaderTrackWithOnWriteComplete(func() {
			c.logger.Info("finished writing file", "file", filename)
			if p := pub.Load(); p != nil {
				_ = room.LocalParticipant.UnpublishTrack(p.SID())
			}
			if onDone != nil {
				onDone()
			}
		}),
	)
	if err != nil {
		return err
	}

	opts := &lksdk.TrackPublicationOptions{
		Name:   filepath.Base(filename),
		Source: source,
	}
	if source == livekit.TrackSource_CAMERA {
		opts.VideoWidth = c.opts.CameraDimensions.Width
		opts.VideoHeight = c.opts.CameraDimensions.Height
	}

	p, err := room.LocalParticipant.PublishTrack(track, opts)
	if err != nil {
		return err
	}
	pub.Store(p)
	c.logger.Info("published track", "file", filename, "source", source.String(), "sid", p.SID())
	return nil
}
