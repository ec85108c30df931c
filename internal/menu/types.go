package menu

// MenuOption represents a selectable option shown to the user.
type MenuOption struct {
	Label       string
	Description string
	Handler     func() error
	Color       string
	Enabled     bool
}

// Handlers are the actions the main menu dispatches to.
type Handlers struct {
	Acquire func(version string) error
	History func() error
}
