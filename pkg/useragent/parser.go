package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"

	UnknownOS = "unknown"
)

// Classification is the part of a User-Agent the click analytics care about.
type Classification struct {
	OSFamily       string // Windows, iOS, Android, ... or "unknown"
	DeviceCategory string // desktop, mobile, tablet
}

// Classifier wraps the uap-go parser with device category detection
type Classifier struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// NewClassifier creates a classifier from a uap-core regexes.yaml file.
// An empty path uses the definitions bundled with uap-go.
func NewClassifier(regexFilePath string, log *zap.Logger) (*Classifier, error) {
	if regexFilePath == "" {
		log.Info("using bundled User-Agent definitions")
		return &Classifier{parser: uaparser.NewFromSaved(), log: log}, nil
	}

	regexBytes, err := os.ReadFile(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regexes file %s: %w", regexFilePath, err)
	}

	parser, err := uaparser.NewFromBytes(regexBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized successfully", zap.String("regexes_file", regexFilePath))

	return &Classifier{parser: parser, log: log}, nil
}

// Classify returns the OS family and device category of a User-Agent string.
// Undetectable devices are reported as desktop.
func (c *Classifier) Classify(userAgent string) Classification {
	if strings.TrimSpace(userAgent) == "" {
		return Classification{OSFamily: UnknownOS, DeviceCategory: DeviceDesktop}
	}

	client := c.parser.Parse(userAgent)

	result := Classification{
		OSFamily:       formatFamily(client.Os.Family),
		DeviceCategory: deviceCategory(client, userAgent),
	}

	c.log.Debug("classified User-Agent",
		zap.String("user_agent", userAgent),
		zap.String("device", result.DeviceCategory),
		zap.String("os", result.OSFamily),
	)

	return result
}

// deviceCategory maps a parsed client to desktop, mobile or tablet.
// Crawlers have no device of their own and count as desktop.
func deviceCategory(client *uaparser.Client, userAgent string) string {
	if isCrawler(client) {
		return DeviceDesktop
	}

	if family := client.Device.Family; family != "" && family != "Other" {
		if containsAny(family, tabletDevices) {
			return DeviceTablet
		}
		if containsAny(family, mobileDevices) {
			return DeviceMobile
		}
	}

	osFamily := client.Os.Family
	if containsAny(osFamily, mobileOS) {
		if isTabletOS(osFamily, userAgent) {
			return DeviceTablet
		}
		return DeviceMobile
	}

	return DeviceDesktop
}

var (
	mobileDevices = []string{"iPhone", "Android", "BlackBerry", "Windows Phone", "Mobile", "Phone"}
	tabletDevices = []string{"iPad", "Tablet", "Kindle", "Surface"}
	mobileOS      = []string{"iOS", "Android", "Windows Phone", "BlackBerry OS", "Firefox OS", "Sailfish OS"}
)

// isCrawler trusts only the parsed result: uap-core reports crawlers with the "Spider" device family
func isCrawler(client *uaparser.Client) bool {
	return client.Device.Family == "Spider"
}

// isTabletOS tells iPad from iPhone and Android tablets (no "Mobile" token) from phones
func isTabletOS(osFamily, userAgent string) bool {
	switch {
	case containsFold(osFamily, "iOS"):
		return containsFold(userAgent, "iPad")
	case containsFold(osFamily, "Android"):
		return !containsFold(userAgent, "Mobile")
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if containsFold(s, n) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	if s == "" || substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func formatFamily(family string) string {
	if family == "" || family == "Other" {
		return UnknownOS
	}
	return family
}
