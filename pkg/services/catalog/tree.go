package catalog

import (
	"context"
	"strings"

	"github.com/de-tools/report-atlas/pkg/models/domain"
	sqlstore "github.com/de-tools/report-atlas/pkg/store/sql"
)

// Node is one expanded level of a tool hierarchy.
type Node struct {
	Name     string             `json:"name"`
	IsTool   bool               `json:"is_tool"`
	Status   *domain.ToolStatus `json:"status,omitempty"`
	Children []*Node            `json:"children,omitempty"`
}

func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, 0)
	return b.String()
}

func (n *Node) write(b *strings.Builder, level int) {
	b.WriteString(strings.Repeat("--> ", level))
	b.WriteString(n.Name)
	b.WriteString("\n")
	for _, c := range n.Children {
		c.write(b, level+1)
	}
}

// Walk visits n and its descendants depth first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

type treeOptions struct {
	status bool
}

type TreeOption func(*treeOptions)

// WithStatus also reads the status row of every tool in the tree.
func WithStatus() TreeOption {
	return func(o *treeOptions) { o.status = true }
}

// Tree expands the whole hierarchy below t.
func (t *Tool) Tree(ctx context.Context, opts ...TreeOption) (*Node, error) {
	var o treeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return t.expand(ctx, o)
}

func (t *Tool) expand(ctx context.Context, o treeOptions) (*Node, error) {
	node := &Node{Name: t.name, IsTool: t.isTool}
	if o.status && t.isTool {
		st, err := t.Status(ctx)
		if err != nil {
			return nil, err
		}
		node.Status = &st
	}

	children, err := t.Children(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		child, err := c.expand(ctx, o)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// Explorer opens tools against one data source.
type Explorer struct {
	q    sqlstore.Querier
	opts []Option
}

func NewExplorer(q sqlstore.Querier, opts ...Option) *Explorer {
	return &Explorer{q: q, opts: opts}
}

func (e *Explorer) Tool(name string, isTool bool) *Tool {
	return NewTool(e.q, name, isTool, e.opts...)
}

// Tree expands name as a toolset.
func (e *Explorer) Tree(ctx context.Context, name string, opts ...TreeOption) (*Node, error) {
	return e.Tool(name, false).Tree(ctx, opts...)
}
