package convert

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/meigma/relink/internal/blobtype"
)

// BXM layout, all integers big-endian:
//
//	header      "XML\0", u32 flags, u16 node count, u16 data count, u32 string table size
//	node infos  u16 child count, u16 first child index, u16 attribute count, u16 data index
//	data        u16 name offset, u16 value offset (bxmNone when absent)
//	strings     NUL-terminated, deduplicated
//
// Nodes are stored breadth-first so each node's children are contiguous.
// A node owns the data entry at its data index for its name and text,
// followed by one entry per attribute.
const (
	bxmMagic      = "XML\x00"
	bxmHeaderSize = 16
	bxmNone       = 0xFFFF
)

type bxmAttr struct {
	name, value string
}

type bxmElement struct {
	name     string
	text     string
	attrs    []bxmAttr
	children []*bxmElement

	// raw collects character data until the end tag.
	raw strings.Builder
}

// XMLToBXM converts an XML document to BXM binary markup.
// Comments, processing instructions and directives are dropped; element
// text is whitespace-trimmed.
func XMLToBXM(data []byte) ([]byte, error) {
	root, err := parseXML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: xml: %v", blobtype.ErrTransform, err)
	}
	out, err := encodeBXM(root)
	if err != nil {
		return nil, fmt.Errorf("%w: bxm: %v", blobtype.ErrTransform, err)
	}
	return out, nil
}

func parseXML(data []byte) (*bxmElement, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *bxmElement
	var stack []*bxmElement

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &bxmElement{name: qualifiedName(t.Name)}
			for _, a := range t.Attr {
				el.attrs = append(el.attrs, bxmAttr{name: qualifiedName(a.Name), value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			el := stack[len(stack)-1]
			el.text = strings.TrimSpace(el.raw.String())
			el.raw.Reset()
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].raw.Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

// qualifiedName keeps the prefix of names in the "xmlns" namespace, which
// the decoder otherwise reports as a namespace URL.
func qualifiedName(n xml.Name) string {
	if n.Space == "xmlns" {
		return "xmlns:" + n.Local
	}
	return n.Local
}

type bxmNode struct {
	childCount, firstChild, attrCount, dataIndex uint16
}

type bxmData struct {
	name, value uint16
}

type bxmStrings struct {
	buf     bytes.Buffer
	offsets map[string]uint16
}

func (s *bxmStrings) add(str string) (uint16, error) {
	if off, ok := s.offsets[str]; ok {
		return off, nil
	}
	if s.buf.Len() >= bxmNone {
		return 0, fmt.Errorf("string table exceeds %d bytes", bxmNone)
	}
	off := uint16(s.buf.Len())
	s.buf.WriteString(str)
	s.buf.WriteByte(0)
	s.offsets[str] = off
	return off, nil
}

func encodeBXM(root *bxmElement) ([]byte, error) {
	// Breadth-first order; children of order[i] are appended contiguously.
	order := []*bxmElement{root}
	nodes := make([]bxmNode, 0, 1)
	var entries []bxmData
	strs := &bxmStrings{offsets: make(map[string]uint16)}

	for i := 0; i < len(order); i++ {
		el := order[i]
		if len(order)+len(el.children) > math.MaxUint16 || len(entries)+1+len(el.attrs) > math.MaxUint16 {
			return nil, errors.New("document too large")
		}

		node := bxmNode{
			childCount: uint16(len(el.children)),
			firstChild: uint16(len(order)),
			attrCount:  uint16(len(el.attrs)),
			dataIndex:  uint16(len(entries)),
		}
		order = append(order, el.children...)

		name, err := strs.add(el.name)
		if err != nil {
			return nil, err
		}
		value := uint16(bxmNone)
		if el.text != "" {
			if value, err = strs.add(el.text); err != nil {
				return nil, err
			}
		}
		entries = append(entries, bxmData{name: name, value: value})

		for _, a := range el.attrs {
			an, err := strs.add(a.name)
			if err != nil {
				return nil, err
			}
			av, err := strs.add(a.value)
			if err != nil {
				return nil, err
			}
			entries = append(entries, bxmData{name: an, value: av})
		}
		nodes = append(nodes, node)
	}

	var out bytes.Buffer
	out.Grow(bxmHeaderSize + len(nodes)*8 + len(entries)*4 + strs.buf.Len())
	out.WriteString(bxmMagic)
	be := binary.BigEndian
	out.Write(be.AppendUint32(nil, 0))
	out.Write(be.AppendUint16(nil, uint16(len(nodes))))
	out.Write(be.AppendUint16(nil, uint16(len(entries))))
	out.Write(be.AppendUint32(nil, uint32(strs.buf.Len())))

	for _, n := range nodes {
		out.Write(be.AppendUint16(nil, n.childCount))
		out.Write(be.AppendUint16(nil, n.firstChild))
		out.Write(be.AppendUint16(nil, n.attrCount))
		out.Write(be.AppendUint16(nil, n.dataIndex))
	}
	for _, d := range entries {
		out.Write(be.AppendUint16(nil, d.name))
		out.Write(be.AppendUint16(nil, d.value))
	}
	out.Write(strs.buf.Bytes())
	return out.Bytes(), nil
}
