package convert

import (
	"image"
	"sort"
	"sync"

	"eq-zone-gltf/internal/texture"
	"eq-zone-gltf/internal/zone"
)

// decodeTextures decodes every pooled texture blob with a worker pool.
// Results are assembled in name order so warnings stay deterministic.
// Blobs that fail to decode are replaced with the placeholder image.
func decodeTextures(pool map[string][]byte, keyed map[string]bool, opts Options, warns *zone.Warnings) map[string]*image.NRGBA {
	names := make([]string, 0, len(pool))
	for name := range pool {
		names = append(names, name)
	}
	sort.Strings(names)

	type outcome struct {
		img *image.NRGBA
		err error
	}
	outcomes := make([]outcome, len(names))

	jobs := make(chan int, opts.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				name := names[i]
				img, err := texture.Decode(pool[name])
				if err == nil {
					if keyed[name] {
						texture.ApplyColorKey(img)
					}
					if opts.MaxTextureSize > 0 {
						img = texture.Resample(img, opts.MaxTextureSize)
					}
				}
				outcomes[i] = outcome{img: img, err: err}
			}
		}()
	}
	for i := range names {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	decoded := make(map[string]*image.NRGBA, len(names))
	for i, name := range names {
		if outcomes[i].err != nil {
			warns.Addf("texture", 0, "%s: %v, using placeholder", name, outcomes[i].err)
			decoded[name] = texture.Placeholder()
			continue
		}
		decoded[name] = outcomes[i].img
	}
	return decoded
}
