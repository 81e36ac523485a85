// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/temimi-realtime/internal/events"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/models"
	"github.com/tomtom215/temimi-realtime/internal/realtime"
	"github.com/tomtom215/temimi-realtime/internal/validation"
)

// OpenVideo switches the danmu timeline to vid: the cache is cleared, the
// stored danmu are fetched and the danmu channel is opened for the video.
// A failed fetch still opens the channel.
func (a *App) OpenVideo(ctx context.Context, vid int64) error {
	if vid <= 0 {
		return fmt.Errorf("open video: invalid id %d", vid)
	}
	ctx = logging.ContextWithNewCorrelationID(ctx)
	videoID := strconv.FormatInt(vid, 10)

	a.rt.Close(realtime.Danmu)
	a.danmu.Reset(videoID)
	a.changed(events.ChangeDanmu)

	var fetchErr error
	list, err := a.backend.DanmuList(ctx, vid)
	switch {
	case err != nil:
		fetchErr = a.fail(ctx, "fetch danmu", err)
	case a.danmu.VideoID() == videoID:
		a.danmu.Replace(list)
		a.changed(events.ChangeDanmu)
	default:
		// Another OpenVideo or LeaveVideo ran while the list was in flight.
		return nil
	}

	var connErr error
	if err := a.connect(ctx, realtime.Danmu, videoID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("video_id", videoID).Msg("Danmu channel did not open")
		connErr = fmt.Errorf("connect danmu: %w", err)
	}
	return errors.Join(fetchErr, connErr)
}

// LeaveVideo closes the danmu channel and empties the timeline.
func (a *App) LeaveVideo() {
	a.rt.Close(realtime.Danmu)
	a.danmu.Reset("")
	a.changed(events.ChangeDanmu)
}

// PostDanmu posts entry over REST for the open video. The entry shows up as
// pending straight away; it is confirmed when the post succeeds and removed
// when it fails.
func (a *App) PostDanmu(ctx context.Context, entry models.DanmuEntry) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	if a.session.Token() == "" {
		return ErrNotLoggedIn
	}
	entry, err := a.prepareDanmu(entry)
	if err != nil {
		return err
	}

	localID := a.danmu.AppendPending(entry)
	a.changed(events.ChangeDanmu)

	stored, err := a.backend.PostDanmu(ctx, entry)
	if err != nil {
		a.danmu.Discard(localID)
		a.changed(events.ChangeDanmu)
		return a.fail(ctx, "post danmu", err)
	}
	if a.danmu.Confirm(localID, stored) {
		a.changed(events.ChangeDanmu)
	}
	return nil
}

// SendDanmu writes entry to the danmu channel. Nothing is added locally;
// the entry appears when the server broadcasts it back.
func (a *App) SendDanmu(entry models.DanmuEntry) error {
	entry, err := a.prepareDanmu(entry)
	if err != nil {
		return err
	}
	a.rt.Send(realtime.Danmu, entry.Outgoing())
	return nil
}

// DeleteDanmu deletes one of the user's danmu and drops it from the
// timeline.
func (a *App) DeleteDanmu(ctx context.Context, id int64) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	if err := a.backend.DeleteDanmu(ctx, id); err != nil {
		return a.fail(ctx, "delete danmu", err)
	}
	if a.danmu.RemoveByID(id) {
		a.changed(events.ChangeDanmu)
	}
	return nil
}

// prepareDanmu binds entry to the open video and the current user and
// validates the wire form.
func (a *App) prepareDanmu(entry models.DanmuEntry) (models.DanmuEntry, error) {
	videoID := a.danmu.VideoID()
	if videoID == "" {
		return entry, ErrNoVideo
	}
	vid, err := strconv.ParseInt(videoID, 10, 64)
	if err != nil {
		return entry, fmt.Errorf("danmu video id %q: %w", videoID, err)
	}
	entry.VideoID = vid
	entry.SenderID = a.session.UserID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = models.NewTimestamp(time.Now())
	}
	if err := validation.Validate(entry.Outgoing()); err != nil {
		a.notify(events.NoticeWarning, err.Error())
		return entry, err
	}
	return entry, nil
}
