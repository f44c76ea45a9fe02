package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/proposalkit/backend/internal/dto"
	"github.com/proposalkit/backend/internal/http/handlers/common"
	"github.com/proposalkit/backend/internal/repository"
	"github.com/proposalkit/backend/internal/storage"
	"github.com/proposalkit/backend/internal/validation"
)

// Разрешённые типы файлов логотипа
var allowedLogoMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Разрешённые расширения файлов логотипа
var allowedLogoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ProfileHandler — профиль владельца и брендинг клиентской страницы.
type ProfileHandler struct {
	users   *repository.UserRepository
	storage *storage.PhotoStorage
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(users *repository.UserRepository, storage *storage.PhotoStorage) *ProfileHandler {
	return &ProfileHandler{users: users, storage: storage}
}

// Get обрабатывает GET /api/profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Update обрабатывает PUT /api/profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := validation.ValidateName(req.Name); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateCompany(req.Company); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateBrandColor(req.BrandColor); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, strings.TrimSpace(req.Name), req.Company, req.BrandColor)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UploadLogo обрабатывает POST /api/profile/logo.
// Тип файла проверяется по магическим байтам, не по расширению.
func (h *ProfileHandler) UploadLogo(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}

	if file.Size == 0 {
		common.RespondBadRequest(c, "файл не может быть пустым")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedLogoExtensions[ext] {
		common.RespondBadRequest(c, "неподдерживаемый формат файла, разрешены: .jpg, .jpeg, .png, .webp")
		return
	}

	src, err := file.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer src.Close()

	// Первые 512 байт достаточно для определения реального типа.
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		common.RespondBadRequest(c, "не удалось определить тип файла, разрешены только изображения")
		return
	}

	if !allowedLogoMimeTypes[kind.MIME.Value] {
		common.RespondBadRequest(c, fmt.Sprintf("неподдерживаемый тип файла (%s)", kind.MIME.Value))
		return
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			_ = c.Error(err)
			return
		}
	}

	relativePath, _, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		_ = c.Error(err)
		return
	}

	logoPath := "/media/" + filepath.ToSlash(relativePath)

	// Старый логотип убираем, чтобы не копить мусор на диске.
	if user, err := h.users.GetByID(c.Request.Context(), userID); err == nil && user.LogoPath != nil {
		old := strings.TrimPrefix(*user.LogoPath, "/media/")
		_ = h.storage.Delete(c.Request.Context(), old)
	}

	if err := h.users.UpdateLogoPath(c.Request.Context(), userID, logoPath); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.LogoResponse{LogoPath: logoPath})
}
