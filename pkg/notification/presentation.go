package notification

import "strings"

// Presentation is the set of options the OS uses to show a notification that
// arrives while the app is in the foreground.
type Presentation uint

const (
	PresentationBadge Presentation = 1 << iota
	PresentationSound
	PresentationAlert
	PresentationList
	PresentationBanner
)

// DefaultBannerMinOS is the first OS major version that knows about banners.
const DefaultBannerMinOS = 14

var _PresentationNames = []struct {
	opt  Presentation
	name string
}{
	{PresentationBanner, "banner"},
	{PresentationAlert, "alert"},
	{PresentationList, "list"},
	{PresentationSound, "sound"},
	{PresentationBadge, "badge"},
}

// ForegroundPresentation picks banner|sound|badge on OS versions that support
// banners and the legacy alert|sound|badge before that.
func ForegroundPresentation(osMajor, bannerMinOS int) Presentation {

	if bannerMinOS <= 0 {
		bannerMinOS = DefaultBannerMinOS
	}

	if osMajor >= bannerMinOS {
		return PresentationBanner | PresentationSound | PresentationBadge
	}

	return PresentationAlert | PresentationSound | PresentationBadge
}

func (p Presentation) Has(opt Presentation) bool {
	return p&opt == opt
}

func (p Presentation) String() string {

	if p == 0 {
		return "none"
	}

	names := make([]string, 0, len(_PresentationNames))
	for _, item := range _PresentationNames {
		if p.Has(item.opt) {
			names = append(names, item.name)
		}
	}

	return strings.Join(names, "|")
}
