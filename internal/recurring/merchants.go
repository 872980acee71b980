package recurring

import "sort"

// knownMerchants maps merchant substrings to friendly subscription names.
// A matched pattern also becomes the candidate's merchant pattern, which
// keeps grouping stable across messy statement descriptions.
var knownMerchants = map[string]string{
	// Streaming and entertainment
	"netflix":         "Netflix",
	"spotify":         "Spotify",
	"apple.com/bill":  "Apple Services",
	"apple music":     "Apple Music",
	"disney plus":     "Disney+",
	"disney+":         "Disney+",
	"hbo max":         "HBO Max",
	"amazon prime":    "Amazon Prime",
	"prime video":     "Amazon Prime Video",
	"youtube premium": "YouTube Premium",
	"dazn":            "DAZN",
	"crunchyroll":     "Crunchyroll",
	"audible":         "Audible",

	// Productivity and cloud
	"github":        "GitHub",
	"notion":        "Notion",
	"1password":     "1Password",
	"bitwarden":     "Bitwarden",
	"dropbox":       "Dropbox",
	"google one":    "Google One",
	"icloud":        "iCloud+",
	"microsoft 365": "Microsoft 365",
	"office 365":    "Microsoft 365",
	"adobe":         "Adobe Creative Cloud",
	"canva":         "Canva",
	"figma":         "Figma",
	"slack":         "Slack",
	"zoom":          "Zoom",
	"grammarly":     "Grammarly",

	// Gaming
	"playstation": "PlayStation Plus",
	"xbox":        "Xbox Game Pass",
	"game pass":   "Xbox Game Pass",
	"nintendo":    "Nintendo Online",
	"ea play":     "EA Play",
	"epic games":  "Epic Games",

	// News and reading
	"new york times":  "New York Times",
	"economist":       "The Economist",
	"medium":          "Medium",
	"substack":        "Substack",
	"financial times": "Financial Times",
	"bloomberg":       "Bloomberg",

	// Health and fitness
	"strava":    "Strava",
	"headspace": "Headspace",
	"calm":      "Calm",
	"peloton":   "Peloton",

	// VPN and security
	"nordvpn":    "NordVPN",
	"expressvpn": "ExpressVPN",
	"surfshark":  "Surfshark",
	"mullvad":    "Mullvad VPN",

	// Learning
	"duolingo":   "Duolingo",
	"skillshare": "Skillshare",
	"coursera":   "Coursera",
	"udemy":      "Udemy",
	"brilliant":  "Brilliant",

	// Finance
	"ynab":    "YNAB",
	"revolut": "Revolut Premium",
	"wise":    "Wise",

	// Other
	"patreon": "Patreon",
	"twitch":  "Twitch",
	"discord": "Discord Nitro",
}

// knownMerchantKeys holds the patterns in a fixed order, longest first, so
// that "xbox game pass" always resolves to the same key.
var knownMerchantKeys = func() []string {
	keys := make([]string, 0, len(knownMerchants))
	for k := range knownMerchants {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()
