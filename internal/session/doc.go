// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package session owns the login state shared by every other component.

The Store answers the current token and user id synchronously, which is
what the realtime reconciler needs while it dispatches frames. Only the
token is durable: a TokenStore keeps it across restarts, either in memory
(tests, ephemeral runs) or in BadgerDB sealed with AES-GCM. After a
restart the session is known but not authenticated until a profile fetch
succeeds and MarkAuthenticated is called.

	store := session.NewStore(tokens)
	if ok, _ := store.LoadPersisted(ctx); ok {
	    profile, err := client.PersonalInfo(ctx)
	    if err == nil {
	        store.MarkAuthenticated(profile)
	    }
	}
*/
package session
