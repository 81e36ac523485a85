// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

// Package moderation runs the admin-side review and cleanup workflows on
// top of the backend admin endpoints: draining the pending-video queue
// with a decision function (Reviewer) and deleting danmu or comments that
// match a keyword filter (Purger). Keyword filtering uses KeywordMatcher,
// an Aho-Corasick automaton, so long block lists cost no more per item
// than short ones.
package moderation
