package feedparser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"feed-ingest/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

// Telegram channels have no feed documents. Their public preview pages at
// t.me/s/{channel} are scraped instead and mapped onto the same item shape.

// IsTelegramChannel reports whether the URL points at a telegram channel
// preview page.
func IsTelegramChannel(feedURL string) bool {
	u, err := url.Parse(feedURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return host == "t.me" || host == "telegram.me"
}

// telegramChannelName extracts the channel slug from a t.me URL, tolerating
// both the /s/{channel} preview form and the bare /{channel} form.
func telegramChannelName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	path = strings.TrimPrefix(path, "s/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}

// ParseTelegram scrapes a telegram channel preview page. Each message block
// becomes one item whose content is the block's HTML; message IDs are stable
// so they double as GUIDs.
func (p *Parser) ParseTelegram(body []byte, feedURL string) (*entity.FeedSource, []entity.FeedItem, error) {
	channel := telegramChannelName(feedURL)
	if channel == "" {
		return nil, nil, fmt.Errorf("telegram: no channel in url %s", feedURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("telegram: parse page for %s: %w", channel, err)
	}

	channelTitle := strings.TrimSpace(doc.Find(".tgme_channel_info_header_title").First().Text())
	if channelTitle == "" {
		channelTitle = channel
	}

	source := &entity.FeedSource{
		URL:         feedURL,
		Title:       channelTitle,
		Description: strings.TrimSpace(doc.Find(".tgme_channel_info_description").First().Text()),
	}
	if icon, ok := doc.Find(".tgme_page_photo_image img, .tgme_channel_info_header img").First().Attr("src"); ok {
		source.IconURL = icon
	}

	var items []entity.FeedItem
	doc.Find("[data-post]").Each(func(_ int, sel *goquery.Selection) {
		post, _ := sel.Attr("data-post")
		id := post
		if i := strings.LastIndexByte(post, '/'); i >= 0 {
			id = post[i+1:]
		}
		if id == "" {
			return
		}

		html, err := goquery.OuterHtml(sel)
		if err != nil {
			return
		}

		item := entity.FeedItem{
			GUID:    fmt.Sprintf("https://t.me/s/%s/%s", channel, id),
			Link:    fmt.Sprintf("https://t.me/s/%s/%s", channel, id),
			Title:   fmt.Sprintf("%s - %s", channelTitle, id),
			Content: html,
		}
		if dt, ok := sel.Find("time[datetime]").First().Attr("datetime"); ok {
			if ts, err := time.Parse(time.RFC3339, dt); err == nil {
				item.PublishedAt = &ts
			}
		}
		items = append(items, item)
	})

	// Most recent item date math expects newest last, which matches the page
	// order of the preview.
	return source, items, nil
}
