package core

import (
	"fmt"
	"strings"
)

// ActionForm is the transaction form currently open on the dashboard.
type ActionForm int

const (
	NoForm ActionForm = iota
	CreateMsaForm
	CreateProviderForm
	AddControlKeyForm
	StakeForm
)

var actionNames = map[ActionForm]string{
	NoForm:             "NoForm",
	CreateMsaForm:      "CreateMsa",
	CreateProviderForm: "CreateProvider",
	AddControlKeyForm:  "AddControlKey",
	StakeForm:          "Stake",
}

func (a ActionForm) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("ActionForm(%d)", int(a))
}

func ParseActionForm(s string) (ActionForm, error) {
	for a, name := range actionNames {
		if strings.EqualFold(name, s) {
			return a, nil
		}
	}
	return NoForm, fmt.Errorf("unknown action form: %s", s)
}

func (a ActionForm) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ActionForm) UnmarshalText(b []byte) error {
	v, err := ParseActionForm(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
