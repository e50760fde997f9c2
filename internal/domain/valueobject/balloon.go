package valueobject

import "strings"

// BalloonKind 气泡种类
type BalloonKind int

const (
	BalloonURL BalloonKind = iota
	BalloonHandwriting
	BalloonDigitalTouch
	BalloonApplePay
	BalloonFitness
	BalloonSlideshow
	BalloonCheckIn
	BalloonFindMy
	BalloonGame
	BalloonBusiness
	// BalloonApp is any third-party extension, identified by AppName.
	BalloonApp
)

// Balloon 应用气泡: 由 bundle identifier 解析得到
type Balloon struct {
	Kind BalloonKind
	// AppName carries the raw bundle identifier for third-party balloons.
	AppName string
}

// First-party extension bundle identifiers observed in the source database.
var balloonCatalogue = map[string]BalloonKind{
	"com.apple.messages.URLBalloonProvider":                    BalloonURL,
	"com.apple.Handwriting.HandwritingProvider":                BalloonHandwriting,
	"com.apple.DigitalTouchBalloonProvider":                    BalloonDigitalTouch,
	"com.apple.PassbookUIService.PeerPaymentMessagesExtension": BalloonApplePay,
	"com.apple.ActivityMessagesApp.MessagesExtension":          BalloonFitness,
	"com.apple.mobileslideshow.PhotosMessagesApp":              BalloonSlideshow,
	"com.apple.SafetyMonitorApp.SafetyMonitorMessages":         BalloonCheckIn,
	"com.apple.findmy.FindMyMessagesApp":                       BalloonFindMy,
}

// ResolveBalloon maps a balloon bundle identifier to a Balloon. First-party
// extensions match exactly; GameCenter and Business identifiers match by
// substring; any other non-empty identifier resolves to a generic
// third-party app. An absent identifier is unresolved (ok = false).
func ResolveBalloon(bundleID string) (Balloon, bool) {
	if bundleID == "" {
		return Balloon{}, false
	}
	if kind, found := balloonCatalogue[bundleID]; found {
		return Balloon{Kind: kind}, true
	}
	if strings.Contains(bundleID, "GameCenter") {
		return Balloon{Kind: BalloonGame}, true
	}
	if strings.Contains(bundleID, "Business") {
		return Balloon{Kind: BalloonBusiness}, true
	}
	return Balloon{Kind: BalloonApp, AppName: bundleID}, true
}

// DisplayName 返回气泡的展示名称
func (b Balloon) DisplayName() string {
	switch b.Kind {
	case BalloonURL:
		return "Link"
	case BalloonHandwriting:
		return "Handwriting"
	case BalloonDigitalTouch:
		return "Digital Touch"
	case BalloonApplePay:
		return "Apple Pay"
	case BalloonFitness:
		return "Fitness"
	case BalloonSlideshow:
		return "Photo Slideshow"
	case BalloonCheckIn:
		return "Check In"
	case BalloonFindMy:
		return "Find My"
	case BalloonGame:
		return "Game"
	case BalloonBusiness:
		return "Business"
	case BalloonApp:
		return b.AppName
	}
	return ""
}
