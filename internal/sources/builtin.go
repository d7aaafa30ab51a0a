package sources

func WuxiaWorld() Descriptor {
	return Descriptor{
		Name:     "wuxiaworld",
		Domain:   "https://www.wuxiaworld.com",
		Language: "en",
		Novel: NovelRules{
			Title:       "div.novel-body h2",
			Author:      `dt:contains("Author:") + dd`,
			Description: `h3:contains("Synopsis") + div p`,
			Cover:       "img.img-thumbnail",
		},
		TOC: TOCRules{
			Mode:    ModePattern,
			Pattern: "{url}/{slug}-chapter-{n}",
		},
		Chapter: ChapterRules{
			Title:   "#chapter-outer h4",
			Content: "#chapter-outer #chapter-content p",
		},
	}
}

// NovelFull lists 50 chapters per TOC page. The site started serving
// CAPTCHAs to plain clients; the browser fetcher gets through more often.
func NovelFull() Descriptor {
	return Descriptor{
		Name:     "novelfull",
		Domain:   "https://novelfull.com",
		Language: "en",
		Novel: NovelRules{
			Title:       "h3.title",
			Author:      `h3:contains("Author:") ~ a`,
			Description: "div.desc-text p",
			Cover:       "div.book img",
		},
		TOC: TOCRules{
			Mode:      ModeList,
			Link:      "#list-chapter a[title]",
			TitleAttr: "title",
			PageParam: "page",
			PerPage:   50,
		},
		Chapter: ChapterRules{
			Content:      "#chapter-content p",
			Readability:  true,
			PageFallback: true,
		},
	}
}

func builtins() []Descriptor {
	return []Descriptor{WuxiaWorld(), NovelFull()}
}
