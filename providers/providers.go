// Package providers registers all built-in media providers. Import it for side effects:
//
//	import _ "github.com/clipforge/clipforge/providers"
package providers

import (
	_ "github.com/clipforge/clipforge/provider/youtube"
	_ "github.com/clipforge/clipforge/provider/ytdlp"
)
