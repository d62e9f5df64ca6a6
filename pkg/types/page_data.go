package types

type NavbarData struct {
	IsAuthenticated bool
	IsAdmin         bool
	UserID          string
	UserEmail       string
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
}

// FlashSetter is implemented by pages that show the one-shot messages
// carried on a redirect.
type FlashSetter interface {
	SetFlash(notice, warning, errMsg string)
}

type BasePageData struct {
	Title   string
	Navbar  NavbarData
	Notice  string
	Warning string
	Error   string
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

// SetFlash keeps any message the handler already set.
func (d *BasePageData) SetFlash(notice, warning, errMsg string) {
	if d.Notice == "" {
		d.Notice = notice
	}
	if d.Warning == "" {
		d.Warning = warning
	}
	if d.Error == "" {
		d.Error = errMsg
	}
}

type HomePageData struct {
	BasePageData
	Services []ServiceData
	Steps    []StepData
}

type ContactPageData struct {
	BasePageData
	Form        ContactRequest
	FieldErrors map[string]string
}

type LoginPageData struct {
	BasePageData
	Email string
}

type RegisterPageData struct {
	BasePageData
	FirstName   string
	LastName    string
	Email       string
	FieldErrors map[string]string
}
