// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package main

import (
	"context"
	"errors"
	"flag"
	"strings"

	"github.com/tomtom215/temimi-realtime/internal/api"
	"github.com/tomtom215/temimi-realtime/internal/config"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/models"
	"github.com/tomtom215/temimi-realtime/internal/moderation"
	"github.com/tomtom215/temimi-realtime/internal/session"
)

var errNoAdminSession = errors.New("moderation needs a stored admin session")

// moderateOptions are the flags of the moderate subcommand.
type moderateOptions struct {
	videoID  int64
	keyword  string
	comments bool
	review   bool
	dryRun   bool
}

func parseModerate(args []string) (moderateOptions, error) {
	var o moderateOptions
	fs := flag.NewFlagSet("moderate", flag.ContinueOnError)
	fs.Int64Var(&o.videoID, "video", 0, "only purge danmu of this video")
	fs.StringVar(&o.keyword, "keyword", "", "content substring to purge, in addition to moderation.keywords")
	fs.BoolVar(&o.comments, "comments", false, "purge comments as well as danmu")
	fs.BoolVar(&o.review, "review", false, "drain the pending-video queue, rejecting keyword matches")
	fs.BoolVar(&o.dryRun, "dry-run", false, "count matches without deleting")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// runModerate is a one-shot admin pass using the stored session.
func runModerate(ctx context.Context, cfg *config.Config, args []string) error {
	opts, err := parseModerate(args)
	if err != nil {
		return err
	}

	tokens, closeTokens, err := session.OpenTokenStore(&cfg.Session)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeTokens(); err != nil {
			logging.Error().Err(err).Msg("Error closing token store")
		}
	}()
	store := session.NewStore(tokens)
	ok, err := store.LoadPersisted(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNoAdminSession
	}

	client := api.NewClient(&cfg.API, store)
	matcher := moderation.NewKeywordMatcher(cfg.Moderation.Keywords)
	ctx = logging.ContextWithNewCorrelationID(ctx)

	if opts.review {
		return review(ctx, client, matcher, cfg.Moderation.PageSize)
	}
	return purge(ctx, client, matcher, cfg.Moderation.PageSize, opts)
}

func purge(ctx context.Context, client *api.Client, matcher *moderation.KeywordMatcher, pageSize int, opts moderateOptions) error {
	if matcher.Len() == 0 && opts.keyword == "" {
		return errors.New("nothing to purge: set moderation.keywords or -keyword")
	}

	filter := moderation.Filter{VideoID: opts.videoID, Keyword: opts.keyword, DryRun: opts.dryRun}
	if matcher.Len() > 0 {
		filter.Matcher = matcher
	}
	purger := moderation.NewPurger(client, pageSize)

	sum, err := purger.PurgeDanmu(ctx, filter)
	logSummary("danmu", sum, opts.dryRun)
	if err != nil || !opts.comments {
		return err
	}
	sum, err = purger.PurgeComments(ctx, filter)
	logSummary("comments", sum, opts.dryRun)
	return err
}

func logSummary(kind string, sum moderation.PurgeSummary, dryRun bool) {
	logging.Info().
		Str("kind", kind).
		Bool("dry_run", dryRun).
		Int("scanned", sum.Scanned).
		Int("matched", sum.Matched).
		Int("deleted", sum.Deleted).
		Int("failed", sum.Failed).
		Msg("Purge finished")
}

// review rejects pending videos whose title, tags or description match a
// keyword and leaves the rest pending.
func review(ctx context.Context, client *api.Client, matcher *moderation.KeywordMatcher, pageSize int) error {
	sum, err := moderation.NewReviewer(client, pageSize).Drain(ctx, reviewDecision(matcher))
	logging.Info().
		Int("seen", sum.Seen).
		Int("rejected", sum.Rejected).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Msg("Review finished")
	return err
}

func reviewDecision(matcher *moderation.KeywordMatcher) moderation.DecideFunc {
	return func(v models.Video) moderation.Decision {
		text := strings.Join([]string{v.Title, v.Tags, v.Description}, "\n")
		var hits []string
		seen := make(map[string]bool)
		for _, m := range matcher.Match(text) {
			if !seen[m.Keyword] {
				seen[m.Keyword] = true
				hits = append(hits, m.Keyword)
			}
		}
		if len(hits) == 0 {
			return moderation.Decision{Verdict: moderation.Skip}
		}
		return moderation.Decision{Verdict: moderation.Reject, Reason: "contains " + strings.Join(hits, ", ")}
	}
}
