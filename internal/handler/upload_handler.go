package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxAttachmentSize = 10 << 20

// UploadAttachment 保存任务附件，返回可写入 file_refs 的引用地址
func (a *API) UploadAttachment(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的文件")
		return
	}
	if file.Size > maxAttachmentSize {
		respondError(c, http.StatusRequestEntityTooLarge, "文件过大")
		return
	}

	userDir := a.userUploadDir(currentUserID(c))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		logRequestError(c, err)
		respondError(c, http.StatusInternalServerError, "创建上传目录失败")
		return
	}

	// 生成唯一文件名
	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := fmt.Sprintf("%s-%s%s", a.today().Format("20060102"), uuid.New().String(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(userDir, name)); err != nil {
		logRequestError(c, err)
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ref":          "/api/uploads/" + name,
		"name":         file.Filename,
		"size":         file.Size,
		"content_type": file.Header.Get("Content-Type"),
	})
}

// ServeAttachment 只返回当前用户目录下的附件，始终以下载方式响应
func (a *API) ServeAttachment(c *gin.Context) {
	name := c.Param("name")
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		respondError(c, http.StatusNotFound, "文件不存在")
		return
	}

	path := filepath.Join(a.userUploadDir(currentUserID(c)), name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		respondError(c, http.StatusNotFound, "文件不存在")
		return
	}

	// 上传内容一律以附件形式返回，不在接口域名下渲染
	c.Header("X-Content-Type-Options", "nosniff")
	c.FileAttachment(path, name)
}

func (a *API) userUploadDir(userID uint) string {
	return filepath.Join(a.uploadDir, strconv.FormatUint(uint64(userID), 10))
}
