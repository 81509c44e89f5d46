package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"siif/internal/db"
	"siif/internal/models"
	"siif/internal/services"
	"siif/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NewsHandler struct {
	storage    *services.Storage
	aggregator *services.NewsAggregator
}

func NewNewsHandler(storage *services.Storage, aggregator *services.NewsAggregator) *NewsHandler {
	return &NewsHandler{storage: storage, aggregator: aggregator}
}

const newsPerPage = 12

func (h *NewsHandler) List(c *gin.Context) {
	page := pageParam(c)
	campus := strings.TrimSpace(c.Query("campus"))
	category := strings.TrimSpace(c.Query("categoria"))

	q := db.DB.Model(&models.News{})
	if campus != "" {
		q = q.Where("campus = ?", campus)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	q.Count(&total)

	var news []models.News
	q.Order("published_at DESC").Limit(newsPerPage).Offset((page - 1) * newsPerPage).Find(&news)

	var campuses, categories []string
	db.DB.Model(&models.News{}).Where("campus <> ''").Distinct().Order("campus").Pluck("campus", &campuses)
	db.DB.Model(&models.News{}).Where("category <> ''").Distinct().Order("category").Pluck("category", &categories)

	Render(c, http.StatusOK, "news/list.html", gin.H{
		"Title":       "Notícias",
		"News":        news,
		"Campuses":    campuses,
		"Categories":  categories,
		"Campus":      campus,
		"Category":    category,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, newsPerPage),
		"Active":      "news",
	})
}

func (h *NewsHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Notícia não encontrada.")
		return
	}
	var n models.News
	if err := db.DB.First(&n, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Notícia não encontrada.")
		return
	}
	Render(c, http.StatusOK, "news/detail.html", gin.H{
		"Title":  n.Title,
		"News":   n,
		"Active": "news",
	})
}

// APIList returns every news item, newest first.
func (h *NewsHandler) APIList(c *gin.Context) {
	var news []models.News
	if err := db.DB.Order("published_at DESC").Find(&news).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, news)
}

func (h *NewsHandler) saveOptional(c *gin.Context, field string, allowed map[string]bool) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	return h.saveUpload(fh, allowed)
}

func (h *NewsHandler) saveUpload(fh *multipart.FileHeader, allowed map[string]bool) (string, error) {
	rel, err := h.storage.SaveUnique(fh, "noticias", allowed)
	if err != nil {
		return "", err
	}
	return h.storage.URL(rel), nil
}

func (h *NewsHandler) APICreate(c *gin.Context) {
	user := currentUser(c)

	title := strings.TrimSpace(c.PostForm("titulo"))
	content := strings.TrimSpace(c.PostForm("conteudo"))
	if title == "" || content == "" {
		jsonError(c, http.StatusBadRequest, "Título e conteúdo são obrigatórios.")
		return
	}

	imageURL, err := h.saveOptional(c, "imagem", services.ImageExtensions)
	if err != nil {
		jsonError(c, http.StatusBadRequest, "Imagem: "+err.Error())
		return
	}
	fileURL, err := h.saveOptional(c, "arquivo", services.AttachmentExtensions)
	if err != nil {
		h.storage.RemoveURL(imageURL)
		jsonError(c, http.StatusBadRequest, "Arquivo: "+err.Error())
		return
	}

	n := models.News{
		Title:        title,
		Content:      content,
		Campus:       strings.TrimSpace(c.PostForm("campus")),
		Category:     strings.TrimSpace(c.PostForm("categoria")),
		ExternalLink: strings.TrimSpace(c.PostForm("link_externo")),
		ImageURL:     imageURL,
		FileURL:      fileURL,
		Source:       models.NewsSourceManual,
		PublishedAt:  time.Now(),
		AuthorID:     &user.ID,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		return services.CreateAuditLog(tx, user.ID, "news.create", "news", n.ID, n.Title, nil)
	})
	if err != nil {
		h.storage.RemoveURL(imageURL)
		h.storage.RemoveURL(fileURL)
		jsonError(c, http.StatusInternalServerError, "Não foi possível salvar a notícia.")
		return
	}

	utils.GetCache().Delete(utils.CacheKeyHome)
	c.JSON(http.StatusCreated, gin.H{"msg": "Notícia criada com sucesso!", "id": n.ID})
}

// APIDelete removes the files first; a file that cannot be removed is only logged.
func (h *NewsHandler) APIDelete(c *gin.Context) {
	user := currentUser(c)
	id, ok := idParam(c, "id")
	if !ok {
		jsonError(c, http.StatusNotFound, "Notícia não encontrada.")
		return
	}

	var n models.News
	if err := db.DB.First(&n, id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "Notícia não encontrada.")
		return
	}

	for _, u := range []string{n.ImageURL, n.FileURL} {
		if err := h.storage.RemoveURL(u); err != nil {
			log.Printf("Failed to remove news file %s: %v", u, err)
		}
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&n).Error; err != nil {
			return err
		}
		return services.CreateAuditLog(tx, user.ID, "news.delete", "news", n.ID, n.Title, nil)
	})
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "Erro ao excluir notícia.")
		return
	}

	utils.GetCache().Delete(utils.CacheKeyHome)
	c.JSON(http.StatusOK, gin.H{"msg": "Notícia excluída com sucesso!"})
}

// Aggregate runs the portal/RSS aggregation on demand.
func (h *NewsHandler) Aggregate(c *gin.Context) {
	user := currentUser(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	count, err := h.aggregator.Run(ctx)
	if err != nil {
		log.Printf("Manual aggregation failed: %v", err)
		Flash(c, "danger", "Falha ao buscar notícias.")
		redirectBack(c, "/admin")
		return
	}

	db.DB.Transaction(func(tx *gorm.DB) error {
		return services.CreateAuditLog(tx, user.ID, "news.aggregate", "news", 0,
			fmt.Sprintf("%d notícias importadas", count), map[string]interface{}{"count": count})
	})

	if count == 0 {
		Flash(c, "info", "Nenhuma notícia nova encontrada.")
	} else {
		Flash(c, "success", fmt.Sprintf("%d notícias novas importadas.", count))
	}
	redirectBack(c, "/admin")
}
