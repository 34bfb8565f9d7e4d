// Package fetch downloads emote and badge images from the Twitch Helix API
// and registers them as glyphs.
//
// A Loader runs one batch per manifest URL: it fetches the manifest, then
// fans out to fetch each image with bounded concurrency. Images whose names
// are already registered are skipped, so loading the same manifest twice
// costs one manifest request. A failed manifest aborts the batch before
// anything is registered; a failed image only skips that image.
//
//	client := fetch.NewClient(fetch.WithToken(token))
//	loader := fetch.NewLoader(client, registry, store)
//	loader.Start(fetch.GlobalEmotesURL, fetch.KindEmotes)
package fetch
