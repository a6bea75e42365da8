package gate

// DefaultSiteMeta returns the bundled site metadata used when no external
// configuration overrides it.
func DefaultSiteMeta() SiteMeta {
	return SiteMeta{
		Contacts: Contacts{
			Telegram: []Contact{
				{Name: "Sales", URL: "https://t.me/elrayan_sales"},
				{Name: "Support", URL: "https://t.me/elrayan_support"},
			},
			WhatsApp: Contact{
				Name: "WhatsApp",
				URL:  "https://wa.me/201000000000",
			},
			Phones: []Phone{
				{Name: "Main", Number: "+20 100 000 0000"},
				{Name: "Branch", Number: "+20 110 000 0000"},
			},
			Location: "https://maps.google.com/?q=El+Rayan",
		},
		Branding: Branding{
			Name:     "El Rayan",
			Subtitle: "Quality you can trust",
		},
	}
}

// DefaultCriticalAssets returns the fixed list of resources pre-warmed on
// every rebuild.
func DefaultCriticalAssets() []string {
	return []string{
		"/styles.css",
		"/app.js",
		"/logo.png",
		"/fonts/main.woff2",
	}
}
