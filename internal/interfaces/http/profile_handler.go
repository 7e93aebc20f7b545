package http

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/usecase"
)

// maxAvatarSize tamaño máximo del avatar (2 MiB).
const maxAvatarSize = 2 << 20

// avatarExts extensiones aceptadas para el avatar.
var avatarExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ProfileHandler perfil del usuario autenticado: datos, avatar y contraseña.
type ProfileHandler struct {
	uc        *usecase.UserUseCase
	uploadDir string
}

// NewProfileHandler construye el handler de perfil. uploadDir es el directorio
// base de uploads; los avatares quedan en uploadDir/avatars.
func NewProfileHandler(uc *usecase.UserUseCase, uploadDir string) *ProfileHandler {
	return &ProfileHandler{uc: uc, uploadDir: uploadDir}
}

// Me godoc
// @Summary      Perfil del usuario autenticado
// @Tags         profile
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/me [get]
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	user, err := h.uc.Me(c.Context(), GetUserID(c))
	if err != nil {
		return userError(c, err)
	}
	return c.JSON(dto.ToUserResponse(user))
}

// UpdateMe godoc
// @Summary      Actualizar perfil (multipart: name, email, avatar opcional)
// @Tags         profile
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/me [patch]
func (h *ProfileHandler) UpdateMe(c *fiber.Ctx) error {
	var in dto.UpdateProfileRequest
	if v := c.FormValue("name"); v != "" {
		in.Name = &v
	}
	if v := c.FormValue("email"); v != "" {
		in.Email = &v
	}

	avatarPath := ""
	if file, err := c.FormFile("avatar"); err == nil && file != nil {
		path, err := h.saveAvatar(c, file)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_AVATAR", Message: err.Error()})
		}
		avatarPath = path
	}

	user, err := h.uc.UpdateProfile(c.Context(), GetUserID(c), in, avatarPath)
	if err != nil {
		return userError(c, err)
	}
	return c.JSON(dto.ToUserResponse(user))
}

// ChangePassword godoc
// @Summary      Cambiar contraseña
// @Tags         profile
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ChangePasswordRequest  true  "current_password, new_password (mínimo 6)"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/me/password [patch]
func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	var in dto.ChangePasswordRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.ChangePassword(c.Context(), GetUserID(c), in); err != nil {
		return userError(c, err)
	}
	return c.JSON(fiber.Map{"message": "contraseña actualizada"})
}

// saveAvatar valida extensión y tamaño, y guarda el archivo bajo uploads/avatars.
// Devuelve la ruta pública persistida en el usuario.
func (h *ProfileHandler) saveAvatar(c *fiber.Ctx, file *multipart.FileHeader) (string, error) {
	if file.Size > maxAvatarSize {
		return "", fmt.Errorf("el avatar no puede superar 2 MB")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !avatarExts[ext] {
		return "", fmt.Errorf("solo se aceptan imágenes JPG, PNG o WEBP")
	}

	dir := filepath.Join(h.uploadDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("no se pudo preparar el directorio de avatares")
	}
	name := fmt.Sprintf("%s_%d%s", GetUserID(c), time.Now().UnixMilli(), ext)
	if err := c.SaveFile(file, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("no se pudo guardar el avatar")
	}
	return "/uploads/avatars/" + name, nil
}
