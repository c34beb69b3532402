package page

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"mashalpipes.in/Website/pkg/logger"
	"mashalpipes.in/Website/pkg/util"
	"mashalpipes.in/Website/services/web-front/internal/client"
	"mashalpipes.in/Website/services/web-front/internal/gallery"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Titles the page looks up. They must match the records' titles exactly.
var (
	HeroTitle   = "Hero"
	AboutTitle  = "About Us"
	BrandTitles = []string{"FloWater", "Mashal"}
	WorkTitles  = []string{"PVC Pipes", "Fittings", "PVC Joints", "Others"}
	RegionNames = []string{"Chennai", "Agra", "Delhi", "Mumbai"}
)

type Reason struct {
	Title       string
	Description string
}

var reasons = []Reason{
	{"Best Quality Pipes and Fittings", "We ensure top-notch quality PVC pipes and fittings with rigorous quality checks at every stage."},
	{"Best Market Rate", "Our pricing strategy guarantees the best rates without compromising on quality."},
	{"Better Customer Support", "Our dedicated support team is always ready to assist you."},
	{"Eco-Friendly Products", "We use sustainable materials and environmentally conscious processes."},
	{"Timely Delivery of Pipes and Fittings", "Our efficient supply chain ensures that your orders of pipes and fittings arrive on time, every time."},
}

type Contact struct {
	Email   string
	Phone   string
	Address []string
}

var contact = Contact{
	Email:   "contact.flowater@gmail.com",
	Phone:   "+91 9897201580",
	Address: []string{"Sikandra, Agra,", "Uttar Pradesh, 282010"},
}

type Region struct {
	Name  string
	Image string
}

// IndexView is everything index.html renders.
type IndexView struct {
	HeroImage  string
	Brands     []client.Image
	Work       []client.Image
	AboutImage string
	Regions    []Region
	Reasons    []Reason
	Contact    Contact
}

// ImageLister is satisfied by client.ImageClient.
type ImageLister interface {
	ListImages(ctx context.Context) ([]client.Image, error)
}

type PageHandler interface {
	Index(c *gin.Context)
	Health(c *gin.Context)
}

type pageHandler struct {
	images       ImageLister
	imageBaseURL string
	placeholder  string
	log          *logger.Logger
}

func NewPageHandler(images ImageLister, imageBaseURL, placeholder string, log *logger.Logger) PageHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &pageHandler{images: images, imageBaseURL: imageBaseURL, placeholder: placeholder, log: log}
}

// Templates returns the embedded page templates for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
}

// BuildView fills every section from one gallery.
func BuildView(g *gallery.Gallery) IndexView {
	regions := make([]Region, 0, len(RegionNames))
	for _, name := range RegionNames {
		regions = append(regions, Region{Name: name, Image: g.ImageByTitle(name)})
	}
	return IndexView{
		HeroImage:  g.ImageByTitle(HeroTitle),
		Brands:     g.Filter(BrandTitles),
		Work:       g.Filter(WorkTitles),
		AboutImage: g.ImageByTitle(AboutTitle),
		Regions:    regions,
		Reasons:    reasons,
		Contact:    contact,
	}
}

// Index fetches the image list once and renders the page. A failed fetch is logged
// and the page falls back to placeholders.
func (h *pageHandler) Index(c *gin.Context) {
	images, err := h.images.ListImages(c.Request.Context())
	if err != nil {
		entry := h.log.WithError(err)
		if id, ok := util.GetRequestID(c); ok {
			entry = entry.WithField("request_id", id)
		}
		entry.Error("failed to fetch images")
		images = nil
	}
	g := gallery.New(images, h.imageBaseURL, h.placeholder)
	c.HTML(http.StatusOK, "index.html", BuildView(g))
}

func (h *pageHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
