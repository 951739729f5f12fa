package objects

import (
	"encoding/json"
	"sync"

	"krypt.co/locus/daemon/methods"
)

// Note is a named piece of text.
type Note struct {
	mediated
	sync.Mutex
	name string
	text string
}

type noteState struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func NewNote(name string, text string) *Note {
	return &Note{name: name, text: text}
}

func RestoreNote(state []byte) (object methods.Exposed, err error) {
	var s noteState
	err = json.Unmarshal(state, &s)
	if err != nil {
		return
	}
	object = NewNote(s.Name, s.Text)
	return
}

func (n *Note) TypeName() string {
	return NOTE_TYPE
}

func (n *Note) DisplayName() string {
	n.Lock()
	defer n.Unlock()
	if n.name == "" {
		return "note"
	}
	return n.name
}

func (n *Note) Text() string {
	n.Lock()
	defer n.Unlock()
	return n.text
}

func (n *Note) Snapshot() (state []byte, err error) {
	n.Lock()
	defer n.Unlock()
	return json.Marshal(noteState{Name: n.name, Text: n.text})
}

func (n *Note) write(text string, appending bool) (result string) {
	n.Lock()
	if appending {
		n.text += text
	} else {
		n.text = text
	}
	result = n.text
	n.Unlock()
	n.notify("text %q", result)
	return
}

func (n *Note) Operations() []methods.Spec {
	return []methods.Spec{
		{Name: "get", Signature: methods.Sig(), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			return target.(*Note).Text(), nil
		}},
		{Name: "set", Signature: methods.Sig(methods.KindString), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			text, _ := methods.String(args, 0)
			return target.(*Note).write(text, false), nil
		}},
		{Name: "append", Signature: methods.Sig(methods.KindString), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			text, _ := methods.String(args, 0)
			return target.(*Note).write(text, true), nil
		}},
		{Name: "len", Signature: methods.Sig(), Op: func(target interface{}, args []interface{}) (interface{}, error) {
			return float64(len(target.(*Note).Text())), nil
		}},
	}
}
