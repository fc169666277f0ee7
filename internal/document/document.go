package document

import (
	"bytes"
	"encoding/pem"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	frontMatterDelim = "---"

	// MessagePEMType labels the armor around an encrypted body.
	MessagePEMType = "SEALNOTE MESSAGE"
)

var messageBegin = []byte("-----BEGIN " + MessagePEMType + "-----")

// Document is a text file with optional YAML front matter and a body.
type Document struct {
	// root is the front matter YAML document and front its top-level mapping.
	// Both are nil when the document has no front matter.
	root  *yaml.Node
	front *yaml.Node

	Body []byte
}

// Parse splits data into front matter and body. Text without a closed
// front matter block is all body.
func Parse(data []byte) (*Document, error) {
	front, body, ok := splitFrontMatter(data)
	if !ok {
		return &Document{Body: data}, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(front, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrInvalidFrontMatter, err)
	}

	doc := &Document{Body: body}
	switch {
	case root.Kind == 0:
		doc.initFrontMatter()
	case root.Kind == yaml.DocumentNode && len(root.Content) == 0:
		root.Content = []*yaml.Node{emptyMapping()}
		doc.root, doc.front = &root, root.Content[0]
	case root.Kind == yaml.DocumentNode && root.Content[0].Kind == yaml.MappingNode:
		doc.root, doc.front = &root, root.Content[0]
	default:
		return nil, fmt.Errorf("%w: front matter must be a mapping", kerrors.ErrInvalidFrontMatter)
	}
	return doc, nil
}

// splitFrontMatter returns the YAML between an opening "---" line and the
// next "---" or "..." line, and everything after it.
func splitFrontMatter(data []byte) (front, body []byte, ok bool) {
	first, rest, found := bytes.Cut(data, []byte("\n"))
	if !found || string(bytes.TrimRight(first, "\r")) != frontMatterDelim {
		return nil, nil, false
	}

	offset := len(data) - len(rest)
	for len(rest) > 0 {
		line, next, _ := bytes.Cut(rest, []byte("\n"))
		trimmed := string(bytes.TrimRight(line, "\r"))
		if trimmed == frontMatterDelim || trimmed == "..." {
			end := len(data) - len(rest)
			return data[offset:end], next, true
		}
		rest = next
	}
	return nil, nil, false
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func (d *Document) initFrontMatter() {
	d.front = emptyMapping()
	d.root = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{d.front}}
}

// HasFrontMatter reports whether the document has a front matter block.
func (d *Document) HasFrontMatter() bool {
	return d.front != nil
}

// KeyID returns the string value of the front matter property prop, or "".
func (d *Document) KeyID(prop string) string {
	if v := d.lookup(prop); v != nil && v.Kind == yaml.ScalarNode {
		return v.Value
	}
	return ""
}

// SetKeyID sets the front matter property prop to id, adding front matter if
// needed. Other properties keep their values and order.
func (d *Document) SetKeyID(prop, id string) {
	if d.front == nil {
		d.initFrontMatter()
	}

	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: id}
	if v := d.lookup(prop); v != nil {
		*v = *value
		return
	}
	d.front.Content = append(d.front.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: prop},
		value,
	)
}

func (d *Document) lookup(prop string) *yaml.Node {
	if d.front == nil {
		return nil
	}
	for i := 0; i+1 < len(d.front.Content); i += 2 {
		if d.front.Content[i].Value == prop {
			return d.front.Content[i+1]
		}
	}
	return nil
}

// IsEncrypted reports whether the whole body is one armored ciphertext.
// A body that merely contains an armor block among other text is plaintext.
func (d *Document) IsEncrypted() bool {
	_, ok := d.armor()
	return ok
}

// SealedBody returns the ciphertext inside the body's armor.
func (d *Document) SealedBody() ([]byte, error) {
	block, ok := d.armor()
	if !ok {
		return nil, kerrors.ErrNotEncrypted
	}
	return block.Bytes, nil
}

// armor decodes the body as a single message block. Only surrounding
// whitespace is allowed outside it.
func (d *Document) armor() (*pem.Block, bool) {
	trimmed := bytes.TrimSpace(d.Body)
	if !bytes.HasPrefix(trimmed, messageBegin) {
		return nil, false
	}
	block, rest := pem.Decode(trimmed)
	if block == nil || block.Type != MessagePEMType || len(bytes.TrimSpace(rest)) > 0 {
		return nil, false
	}
	return block, true
}

// SetSealedBody replaces the body with armored ciphertext.
func (d *Document) SetSealedBody(ciphertext []byte) {
	d.Body = pem.EncodeToMemory(&pem.Block{Type: MessagePEMType, Bytes: ciphertext})
}

// Bytes renders the document back to text.
func (d *Document) Bytes() ([]byte, error) {
	if d.front == nil {
		return d.Body, nil
	}

	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim + "\n")
	if len(d.front.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d.root); err != nil {
			return nil, fmt.Errorf("failed to encode front matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode front matter: %w", err)
		}
	}
	buf.WriteString(frontMatterDelim + "\n")
	buf.Write(d.Body)
	return buf.Bytes(), nil
}

// ReadFile reads and parses the document at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// WriteFile renders doc to path, keeping the existing file mode.
func WriteFile(path string, doc *Document) error {
	data, err := doc.Bytes()
	if err != nil {
		return err
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	// #nosec G306 -- the mode is the file's own existing mode.
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
