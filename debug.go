package cubeportal

import (
	"fmt"
	"os"
	"time"
)

// globalDebug mirrors the most recent GL debug flag so node operations
// (which lack a GL pointer) can check it cheaply.
var globalDebug bool

// debugf writes one prefixed line to stderr.
func (g *GL) debugf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "[cubeportal] "+format+"\n", args...)
}

// debugLog prints per-frame render stats to stderr.
func (g *GL) debugLog(stats RenderStats) {
	if !g.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[cubeportal] frame %d | passes: %d | triangles: %d | draw calls: %d | render: %v\n",
		g.frame, stats.Passes, stats.Triangles, stats.DrawCalls, stats.Elapsed.Round(time.Microsecond))
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Callers skip this entirely outside debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("cubeportal debug: %s on disposed node %q", op, n.Name))
	}
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(os.Stderr, "[cubeportal] warning: tree depth %d exceeds %d (node %q)\n",
			depth, debugMaxTreeDepth, n.Name)
	}
}

// debugCheckTargetSize warns when a screen samples a texture whose size no
// longer matches the drawing buffer.
func (g *GL) debugCheckTargetSize(i int, t *Texture) {
	tw, th := t.Size()
	bw, bh := g.DrawingBufferSize()
	if tw != bw || th != bh {
		_, _ = fmt.Fprintf(os.Stderr, "[cubeportal] warning: screen %d samples %dx%d texture, buffer is %dx%d\n",
			i, tw, th, bw, bh)
	}
}
