/*
Package resources finds and loads the font a text is set in.

A font argument is either the path of a font file or the name of a font
installed on the system, which is looked up with go-findfont. Loading runs in
the background:

   tc, err := ResolveTypeCase("DejaVuSans", 36).Await(ctx)

The promise returned by ResolveTypeCase delivers its type case once. Awaiting
it with a context gives up when the context is done, while loading carries on
and stores the font in the font registry for later requests.

Nothing is written to disk and no font configuration is read.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package resources

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'xshape.resources'.
func tracer() tracing.Trace {
	return tracing.Select("xshape.resources")
}
