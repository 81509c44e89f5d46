package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"siif/internal/db"
	"siif/internal/middleware"
	"siif/internal/models"
	"siif/internal/services"
	"siif/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const defaultCategory = "Geral"

type MaterialHandler struct {
	storage *services.Storage
}

func NewMaterialHandler(storage *services.Storage) *MaterialHandler {
	return &MaterialHandler{storage: storage}
}

// MaterialGroup is one category section of the library page.
type MaterialGroup struct {
	Category  string
	Materials []models.Material
}

func groupByCategory(materials []models.Material) []MaterialGroup {
	index := make(map[string]int)
	var groups []MaterialGroup
	for _, m := range materials {
		cat := strings.TrimSpace(m.Category)
		if cat == "" {
			cat = defaultCategory
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, MaterialGroup{Category: cat})
		}
		groups[i].Materials = append(groups[i].Materials, m)
	}
	return groups
}

func materialCategories() []string {
	cache := utils.GetCache()
	if cached := cache.Get(utils.CacheKeyMaterialCategories); cached != nil {
		return cached.([]string)
	}
	var cats []string
	db.DB.Model(&models.Material{}).Where("category <> ''").Distinct().Pluck("category", &cats)
	sort.Strings(cats)
	cache.Set(utils.CacheKeyMaterialCategories, cats, 10*time.Minute)
	return cats
}

func (h *MaterialHandler) List(c *gin.Context) {
	user := currentUser(c)
	category := strings.TrimSpace(c.Query("categoria"))
	query := strings.TrimSpace(c.Query("q"))
	filter := c.Query("filtro")
	tag := strings.ToLower(strings.TrimSpace(c.Query("tag")))

	q := db.DB.Model(&models.Material{}).Preload("Author").Preload("Tags")
	if category != "" {
		q = q.Where("materials.category = ?", category)
	}
	if filter == "favoritos" {
		if user == nil {
			c.Redirect(http.StatusFound, "/login?next=/materiais?filtro=favoritos")
			return
		}
		q = q.Where("materials.id IN (?)", db.DB.Model(&models.MaterialFavorite{}).Select("material_id").Where("user_id = ?", user.ID))
	}
	if tag != "" {
		q = q.Where("materials.id IN (?)", db.DB.Table("material_tags").
			Select("material_tags.material_id").
			Joins("JOIN tags ON tags.id = material_tags.tag_id").
			Where("tags.name = ?", tag))
	}

	var materials []models.Material
	q.Order("materials.category ASC, materials.created_at DESC").Find(&materials)

	if query != "" {
		materials = services.Items(services.FuzzyRank(materials, query, func(m models.Material) string {
			return m.Title + " " + m.Description
		}))
	}

	favorites := map[uint]bool{}
	if user != nil {
		var ids []uint
		db.DB.Model(&models.MaterialFavorite{}).Where("user_id = ?", user.ID).Pluck("material_id", &ids)
		for _, id := range ids {
			favorites[id] = true
		}
	}

	Render(c, http.StatusOK, "materials/list.html", gin.H{
		"Title":      "Materiais",
		"Groups":     groupByCategory(materials),
		"Total":      len(materials),
		"Categories": materialCategories(),
		"Category":   category,
		"Query":      query,
		"Filter":     filter,
		"Tag":        tag,
		"Favorites":  favorites,
		"Active":     "materials",
	})
}

// findOrCreateTags returns the Tag rows for names, creating missing ones.
func findOrCreateTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tag := models.Tag{Name: name}
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (h *MaterialHandler) Add(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var form MaterialForm
	if err := c.ShouldBind(&form); err != nil {
		Flash(c, "danger", validationMessage(err))
		redirect(c, "/materiais")
		return
	}

	category := strings.TrimSpace(form.Category)
	if nc := utils.Capitalize(form.NewCategory); nc != "" {
		category = nc
	}
	if category == "" {
		Flash(c, "danger", "Escolha ou crie uma categoria.")
		redirect(c, "/materiais")
		return
	}

	link := strings.TrimSpace(form.Link)
	fh, fileErr := c.FormFile("arquivo")
	if fileErr != nil && link == "" {
		Flash(c, "danger", "Envie um arquivo ou informe um link.")
		redirect(c, "/materiais")
		return
	}

	material := models.Material{
		Title:       strings.TrimSpace(form.Title),
		Description: strings.TrimSpace(form.Description),
		Category:    category,
		AuthorID:    user.ID,
	}

	if fileErr == nil {
		rel, err := h.storage.SaveNamed(fh, "materiais", services.MaterialExtensions)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrDuplicateFile):
				Flash(c, "warning", "Já existe um arquivo com o nome "+utils.SecureFilename(fh.Filename)+". Renomeie e tente novamente.")
			case errors.Is(err, services.ErrExtensionNotAllowed):
				Flash(c, "danger", "Tipo de arquivo não permitido.")
			case errors.Is(err, services.ErrFileTooLarge):
				Flash(c, "danger", "Arquivo muito grande.")
			default:
				log.Printf("Save material file failed: %v", err)
				Flash(c, "danger", "Não foi possível salvar o arquivo.")
			}
			redirect(c, "/materiais")
			return
		}
		material.FilePath = rel
		material.OriginalName = fh.Filename
	} else {
		material.ExternalLink = link
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		tags, err := findOrCreateTags(tx, utils.SplitTags(form.Tags))
		if err != nil {
			return err
		}
		material.Tags = tags
		return tx.Create(&material).Error
	})
	if err != nil {
		log.Printf("Create material failed: %v", err)
		if material.FilePath != "" {
			h.storage.Remove(material.FilePath)
		}
		Flash(c, "danger", "Não foi possível adicionar o material.")
		redirect(c, "/materiais")
		return
	}

	utils.GetCache().Delete(utils.CacheKeyMaterialCategories)
	Flash(c, "success", "Material adicionado!")
	redirect(c, "/materiais?categoria="+category)
}

func (h *MaterialHandler) Download(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Material não encontrado.")
		return
	}
	var material models.Material
	if err := db.DB.First(&material, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Material não encontrado.")
		return
	}

	if material.IsLink() {
		db.DB.Model(&material).UpdateColumn("download_count", gorm.Expr("download_count + 1"))
		c.Redirect(http.StatusFound, material.ExternalLink)
		return
	}
	if !h.storage.Exists(material.FilePath) {
		Flash(c, "danger", "Arquivo não encontrado no servidor.")
		c.Redirect(http.StatusFound, "/materiais")
		return
	}

	db.DB.Model(&material).UpdateColumn("download_count", gorm.Expr("download_count + 1"))

	name := material.OriginalName
	if name == "" {
		name = utils.SecureFilename(material.FilePath)
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", utils.SecureFilename(name)))
	c.File(h.storage.Path(material.FilePath))
}

func (h *MaterialHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Material não encontrado.")
		return
	}
	var material models.Material
	if err := db.DB.First(&material, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Material não encontrado.")
		return
	}
	if material.AuthorID != user.ID && !user.IsAdmin {
		RenderError(c, http.StatusForbidden, "Você não pode excluir este material.")
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.storage.Remove(material.FilePath); err != nil {
			return fmt.Errorf("remove file: %w", err)
		}
		if err := tx.Model(&material).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("material_id = ?", material.ID).Delete(&models.MaterialFavorite{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&material).Error; err != nil {
			return err
		}
		if user.ID != material.AuthorID {
			return services.CreateAuditLog(tx, user.ID, "material.delete", "material", material.ID, material.Title, nil)
		}
		return nil
	})
	if err != nil {
		log.Printf("Delete material %d failed: %v", material.ID, err)
		Flash(c, "danger", "Não foi possível excluir o material.")
	} else {
		utils.GetCache().Delete(utils.CacheKeyMaterialCategories)
		Flash(c, "success", "Material excluído.")
	}
	redirect(c, "/materiais")
}
