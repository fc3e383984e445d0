package meter

import (
	"fmt"
	"io"
	"reflect"

	"github.com/deepsize/pkg/utils"
)

// TreePrinter is a diagnostic Listener that collects the visited tree during
// one traversal and renders it, bounded to a maximum depth, when the
// traversal is done.
type TreePrinter struct {
	w         io.Writer
	maxDepth  int
	root      *treeNode
	index     map[identity]*treeNode
	rootSized bool
}

// treeNode is one rendered node of the visited tree.
type treeNode struct {
	label    string
	typeName string
	size     int64
	children []*treeNode
}

// TreePrinterFactory creates a fresh TreePrinter per traversal.
type TreePrinterFactory struct {
	w        io.Writer
	maxDepth int
}

// NewTreePrinterFactory creates a factory printing to w up to maxDepth.
func NewTreePrinterFactory(w io.Writer, maxDepth int) *TreePrinterFactory {
	return &TreePrinterFactory{w: w, maxDepth: maxDepth}
}

// NewListener implements ListenerFactory.
func (f *TreePrinterFactory) NewListener() Listener {
	return &TreePrinter{
		w:        f.w,
		maxDepth: f.maxDepth,
		index:    make(map[identity]*treeNode),
	}
}

// Started records the traversal root.
func (p *TreePrinter) Started(root reflect.Value) {
	p.root = &treeNode{label: "root", typeName: root.Type().String()}
	if id, ok := identityOf(root); ok {
		p.index[id] = p.root
	}
}

// FieldAdded attaches the discovered child under its parent.
func (p *TreePrinter) FieldAdded(parent reflect.Value, label string, child reflect.Value) {
	pn := p.root
	if id, ok := identityOf(parent); ok {
		if indexed, found := p.index[id]; found {
			pn = indexed
		}
	}

	cn := &treeNode{label: label, typeName: child.Type().String()}
	pn.children = append(pn.children, cn)
	if id, ok := identityOf(child); ok {
		p.index[id] = cn
	}
}

// ObjectMeasured records the node's shallow size. The engine measures the
// root before pushing any child, so the first call always belongs to the
// root, whether or not it has an identity. Later identity-less nodes (empty
// allocations, boxed contents) keep the zero size they were attached with.
func (p *TreePrinter) ObjectMeasured(node reflect.Value, size int64) {
	if !p.rootSized {
		p.rootSized = true
		if p.root != nil {
			p.root.size = size
		}
		return
	}
	if id, ok := identityOf(node); ok {
		if tn, found := p.index[id]; found {
			tn.size = size
		}
	}
}

// Done renders the collected tree and the final total.
func (p *TreePrinter) Done(total int64) {
	if p.root != nil {
		p.render(p.root, 0)
	}
	_, _ = fmt.Fprintf(p.w, "total: %s\n", utils.FormatBytes(total))
}

// render prints one node and its children up to the depth bound.
func (p *TreePrinter) render(n *treeNode, depth int) {
	if depth >= p.maxDepth {
		return
	}
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	_, _ = fmt.Fprintf(p.w, "%s%s: %s [%s]\n", indent, n.label, n.typeName, utils.FormatBytes(n.size))
	for _, child := range n.children {
		p.render(child, depth+1)
	}
}
