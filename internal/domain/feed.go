package domain

import "time"

// RSSItem представляет отдельный элемент ленты, построенный из поста.
// Все текстовые поля уже экранированы для XML. Живет только в рамках
// одного вызова генерации и нигде не сохраняется.
type RSSItem struct {
	Title       string
	Description string
	Link        string
	GUID        string
	PubDate     time.Time
	Author      string
	Category    string
}

// FeedDocument представляет полный RSS-документ: метаданные канала
// и упорядоченный список элементов.
type FeedDocument struct {
	Title          string
	Description    string
	Link           string
	SelfLink       string
	Language       string
	ManagingEditor string
	WebMaster      string
	LastBuildDate  time.Time
	PubDate        time.Time
	TTL            int
	Generator      string
	Items          []RSSItem
}

// GenerationResult описывает итог одного вызова генерации ленты.
// При Success=false поле XML пустое, а Err содержит причину.
// SkippedCount считает посты, не прошедшие построение элемента,
// DroppedCount - отсеянные фильтрами до применения лимита.
type GenerationResult struct {
	Success      bool
	XML          []byte
	Err          error
	ItemCount    int
	SkippedCount int
	DroppedCount int
}
