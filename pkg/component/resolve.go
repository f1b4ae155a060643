package component

import "github.com/cuemby/relay/pkg/handler"

// Walk invokes fn for root and every descendant, in no particular order.
func Walk(root *Component, fn func(*Component)) {
	fn(root)
	for _, child := range root.Children() {
		Walk(child, fn)
	}
}

// Resolve walks root's whole subtree gathering every handler that
// matches event name n on any of channels: each component's own
// (catch-all + named) handlers filtered by channel. The result is
// unsorted and may contain duplicates-by-identity only if a handler
// object were registered twice, which callers never do; pkg/bus sorts
// and caches the result.
func Resolve(root *Component, name string, channels []string) []*handler.Handler {
	var out []*handler.Handler
	Walk(root, func(c *Component) {
		owner := c.Channel
		for _, h := range c.HandlersFor(name) {
			if !h.MatchesName(name) {
				continue
			}
			for _, ch := range channels {
				if h.MatchesChannel(owner, ch) {
					out = append(out, h)
					break
				}
			}
		}
	})
	return out
}
