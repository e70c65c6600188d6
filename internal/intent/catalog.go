// Package intent maps spoken transcripts to structured intents using a
// two-tier registry of command descriptors: a global tier that is always
// eligible and a contextual tier keyed by the console route the user is on.
package intent

import (
	"fmt"
	"regexp"
	"sort"
)

// Intent is the parsed result of one transcript: a closed-vocabulary action
// tag plus positional captured parameters. Params is empty, never nil with
// special meaning, when a pattern captures nothing.
type Intent struct {
	Action           string
	Params           []string
	SourceTranscript string
}

// ActionUnknown is the reserved action produced when no descriptor matches.
const ActionUnknown = "unknown"

// Action tags for the built-in catalog. Navigation actions resolve to a
// console route, query actions to computed spoken text, control actions to
// engine side effects; shortcut actions are forwarded to the host console.
const (
	ActionNavDashboard      = "nav_dashboard"
	ActionNavEnrollment     = "nav_enrollment"
	ActionNavBatchEnroll    = "nav_batch_enrollment"
	ActionNavEnrollees      = "nav_enrollees"
	ActionNavVerification   = "nav_verification"
	ActionNavEvents         = "nav_events"
	ActionNavSettings       = "nav_settings"
	ActionNavVoiceSettings  = "nav_voice_settings"
	ActionNavAPIKeys        = "nav_api_keys"
	ActionNavUserManagement = "nav_user_management"

	ActionQueryHelp     = "query_help"
	ActionQueryReadMenu = "query_read_menu"
	ActionQueryWhere    = "query_where"

	ActionControlRepeat   = "control_repeat"
	ActionControlVoiceOff = "control_voice_off"
	ActionControlVoiceOn  = "control_voice_on"
	ActionControlLogout   = "control_logout"

	ActionShortcutSearch       = "shortcut_search"
	ActionShortcutCapturePhoto = "shortcut_capture_photo"
	ActionShortcutStartCamera  = "shortcut_start_camera"
	ActionShortcutSaveEnrollee = "shortcut_save_enrollee"
	ActionShortcutUploadBatch  = "shortcut_upload_batch"
	ActionShortcutStartVerify  = "shortcut_start_verification"
	ActionShortcutRefresh      = "shortcut_refresh"
	ActionShortcutNextPage     = "shortcut_next_page"
	ActionShortcutPrevPage     = "shortcut_prev_page"
	ActionShortcutFilterToday  = "shortcut_filter_today"
)

// Descriptor is one voice command: ordered match rules evaluated against the
// normalized transcript, the action emitted on a match, the route it is
// scoped to (empty for global), and human-readable text for the help surface.
// Descriptors are static configuration; the catalog is never mutated after
// startup.
type Descriptor struct {
	Patterns    []*regexp.Regexp
	Action      string
	Route       string
	Example     string
	Description string
}

// Catalog is the two-tier command registry. Matching priority is contextual
// descriptors for the current route first, then global descriptors, each in
// registration order. Read-only after construction; safe for concurrent use.
type Catalog struct {
	global     []Descriptor
	contextual map[string][]Descriptor
}

// routeForNav maps navigation actions to console routes. The path set is
// fixed by the console's router.
var routeForNav = map[string]string{
	ActionNavDashboard:      "/dashboard",
	ActionNavEnrollment:     "/enrollment",
	ActionNavBatchEnroll:    "/batch-enrollment",
	ActionNavEnrollees:      "/enrollees",
	ActionNavVerification:   "/verification",
	ActionNavEvents:         "/events",
	ActionNavSettings:       "/settings",
	ActionNavVoiceSettings:  "/voice-settings",
	ActionNavAPIKeys:        "/api-keys",
	ActionNavUserManagement: "/user-management",
}

// NavigationPath resolves a navigation action to its console route.
func NavigationPath(action string) (string, bool) {
	path, ok := routeForNav[action]
	return path, ok
}

// NewCatalog builds the default command catalog. Registration order is the
// matching priority within each tier, so more specific phrasings are
// registered before the generic ones they overlap with ("what can I say"
// before "help").
func NewCatalog() *Catalog {
	c := &Catalog{contextual: make(map[string][]Descriptor)}

	c.Register(Descriptor{
		Patterns:    compile(`^what can i say( here)?$`, `^what (?:are|were) (?:the|my) (?:commands|options)$`),
		Action:      ActionQueryHelp,
		Example:     "what can I say",
		Description: "list the voice commands available on this page",
	})
	c.Register(Descriptor{
		Patterns:    compile(`^help( me)?$`),
		Action:      ActionQueryHelp,
		Example:     "help",
		Description: "list the voice commands available on this page",
	})
	c.Register(Descriptor{
		Patterns:    compile(`^read (?:all )?(?:the )?commands$`, `^(?:read|show) (?:the )?menu$`),
		Action:      ActionQueryReadMenu,
		Example:     "read all commands",
		Description: "read the full command listing",
	})
	c.Register(Descriptor{
		Patterns:    compile(`^repeat( that)?$`, `^say (?:that|it) again$`),
		Action:      ActionControlRepeat,
		Example:     "repeat",
		Description: "repeat the last spoken response",
	})
	c.Register(Descriptor{
		Patterns:    compile(`^where am i$`, `^what page is this$`),
		Action:      ActionQueryWhere,
		Example:     "where am I",
		Description: "say which page is open",
	})
	c.Register(Descriptor{
		Patterns:    compile(`^(?:disable|turn off|stop) (?:voice|listening|voice control)$`, `^stop listening$`),
		Action:      ActionControlVoiceOff,
		Example:     "disable voice",
		Description: "turn voice control off",
	})
	c.Register(Descriptor{
		Patterns:    compile(`^(?:enable|turn on|start) (?:voice|listening|voice control)$`),
		Action:      ActionControlVoiceOn,
		Example:     "enable voice",
		Description: "turn voice control on",
	})
	c.Register(Descriptor{
		Patterns:    compile(`^log ?out$`, `^sign out$`),
		Action:      ActionControlLogout,
		Example:     "log out",
		Description: "sign out of the console",
	})
	c.Register(Descriptor{
		Patterns:    compile(`^(?:search|find|look up)(?: for)? (.+)$`),
		Action:      ActionShortcutSearch,
		Example:     "search Alice",
		Description: "search enrollees by name",
	})

	registerNavigation(c)
	registerContextual(c)
	return c
}

func registerNavigation(c *Catalog) {
	// Multiword pages are registered before the pages they shadow
	// ("voice settings" before "settings", "batch enrollment" before
	// "enrollment") so registration order resolves the overlap.
	pages := []struct {
		action string
		phrase string
		spoken string
	}{
		{ActionNavDashboard, `(?:dashboard|home(?: page)?)`, "go to dashboard"},
		{ActionNavBatchEnroll, `batch enrollment`, "go to batch enrollment"},
		{ActionNavEnrollment, `enrollment(?: page)?`, "go to enrollment"},
		{ActionNavEnrollees, `enrollees(?: list)?`, "go to enrollees"},
		{ActionNavVerification, `verification(?: page)?`, "go to verification"},
		{ActionNavEvents, `events(?: page)?`, "go to events"},
		{ActionNavVoiceSettings, `voice settings`, "go to voice settings"},
		{ActionNavSettings, `settings(?: page)?`, "go to settings"},
		{ActionNavAPIKeys, `api keys`, "go to api keys"},
		{ActionNavUserManagement, `user management`, "go to user management"},
	}
	for _, p := range pages {
		c.Register(Descriptor{
			Patterns: compile(`^(?:go to |open |show |navigate to |take me to )?(?:the )?` + p.phrase + `$`),
			Action:   p.action,
			Example:  p.spoken,
			Description: fmt.Sprintf("open the %s page",
				routeForNav[p.action][1:]),
		})
	}
}

func registerContextual(c *Catalog) {
	c.Register(Descriptor{
		Route:       "/enrollment",
		Patterns:    compile(`^capture( photo)?$`, `^take (?:a )?(?:photo|picture)$`),
		Action:      ActionShortcutCapturePhoto,
		Example:     "capture",
		Description: "capture an enrollment photo",
	})
	c.Register(Descriptor{
		Route:       "/enrollment",
		Patterns:    compile(`^start (?:the )?camera$`),
		Action:      ActionShortcutStartCamera,
		Example:     "start camera",
		Description: "start the camera preview",
	})
	c.Register(Descriptor{
		Route:       "/enrollment",
		Patterns:    compile(`^save(?: enrollee)?$`),
		Action:      ActionShortcutSaveEnrollee,
		Example:     "save enrollee",
		Description: "submit the enrollment form",
	})
	c.Register(Descriptor{
		Route:       "/batch-enrollment",
		Patterns:    compile(`^upload(?: photos)?$`, `^start (?:the )?batch$`),
		Action:      ActionShortcutUploadBatch,
		Example:     "upload photos",
		Description: "start the batch upload",
	})
	c.Register(Descriptor{
		Route:       "/verification",
		Patterns:    compile(`^verify$`, `^start verification$`),
		Action:      ActionShortcutStartVerify,
		Example:     "verify",
		Description: "start a verification",
	})
	for _, route := range []string{"/enrollees", "/events"} {
		c.Register(Descriptor{
			Route:       route,
			Patterns:    compile(`^refresh(?: the)?(?: list| page)?$`),
			Action:      ActionShortcutRefresh,
			Example:     "refresh",
			Description: "reload the list",
		})
	}
	c.Register(Descriptor{
		Route:       "/enrollees",
		Patterns:    compile(`^next page$`),
		Action:      ActionShortcutNextPage,
		Example:     "next page",
		Description: "go to the next page of results",
	})
	c.Register(Descriptor{
		Route:       "/enrollees",
		Patterns:    compile(`^previous page$`, `^last page$`),
		Action:      ActionShortcutPrevPage,
		Example:     "previous page",
		Description: "go back one page of results",
	})
	c.Register(Descriptor{
		Route:       "/events",
		Patterns:    compile(`^(?:show )?todays events$`, `^filter today$`),
		Action:      ActionShortcutFilterToday,
		Example:     "today's events",
		Description: "filter events to today",
	})
}

// Register adds a descriptor to its tier. Intended for startup wiring; the
// catalog is not safe to mutate once sessions are running.
func (c *Catalog) Register(d Descriptor) {
	if d.Route == "" {
		c.global = append(c.global, d)
		return
	}
	c.contextual[d.Route] = append(c.contextual[d.Route], d)
}

// ContextualCommands returns the descriptors scoped to route, in
// registration order. These take priority during matching and feed the
// "suggested for this page" surface.
func (c *Catalog) ContextualCommands(route string) []Descriptor {
	src := c.contextual[route]
	out := make([]Descriptor, len(src))
	copy(out, src)
	return out
}

// GlobalCommands returns the always-eligible descriptors in registration
// order.
func (c *Catalog) GlobalCommands() []Descriptor {
	out := make([]Descriptor, len(c.global))
	copy(out, c.global)
	return out
}

// Listing returns a flattened human-readable listing of every command, used
// for the "read all commands" fallback and the help endpoint.
func (c *Catalog) Listing() []string {
	var out []string
	for _, d := range c.global {
		out = append(out, fmt.Sprintf("%s: %s", d.Example, d.Description))
	}
	routes := make([]string, 0, len(c.contextual))
	for route := range c.contextual {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	for _, route := range routes {
		for _, d := range c.contextual[route] {
			out = append(out, fmt.Sprintf("%s (on %s): %s", d.Example, route, d.Description))
		}
	}
	return out
}

// compile builds case-insensitive patterns; transcripts are normalized for
// punctuation but keep their casing so captures do too.
func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+e))
	}
	return out
}
