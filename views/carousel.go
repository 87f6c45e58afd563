package views

import "strconv"

// Next returns the slide after i in a carousel of n slides, wrapping to 0.
func Next(i, n int) int {
	if n < 1 {
		return 0
	}
	return (i + 1) % n
}

// Prev returns the slide before i in a carousel of n slides, wrapping to n-1.
func Prev(i, n int) int {
	if n < 1 {
		return 0
	}
	return (i - 1 + n) % n
}

// Slide is one image of the challenge carousel. Navigation is plain anchor
// links between slide ids, so the carousel works without script.
type Slide struct {
	ID     string
	URL    string
	Alt    string
	PrevID string
	NextID string
	Single bool
}

func slideID(i int) string {
	return "item" + strconv.Itoa(i)
}

// Slides lays out images as carousel slides titled after title.
func Slides(title string, images []string) []Slide {
	n := len(images)
	out := make([]Slide, n)
	for i, url := range images {
		out[i] = Slide{
			ID:     slideID(i),
			URL:    url,
			Alt:    title + " screenshot " + strconv.Itoa(i+1),
			PrevID: slideID(Prev(i, n)),
			NextID: slideID(Next(i, n)),
			Single: n == 1,
		}
	}
	return out
}
