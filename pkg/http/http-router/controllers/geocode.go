package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geocoder"
	helper "github.com/lintang-b-s/osm-geocoder/pkg/http/http-router/router-helper"
	"github.com/lintang-b-s/osm-geocoder/pkg/http/usecases"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"

	"go.uber.org/zap"
)

type geocodeAPI struct {
	geocodeService GeocodeService
	log            *zap.Logger
	validate       *validator.Validate
	trans          ut.Translator
}

func New(geocodeService GeocodeService, log *zap.Logger) *geocodeAPI {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	return &geocodeAPI{
		geocodeService: geocodeService,
		log:            log,
		validate:       validate,
		trans:          trans,
	}
}

func (api *geocodeAPI) Routes(group *helper.RouteGroup) {
	group.GET("/geocode", api.geocode)
	group.POST("/geocode", api.geocode)
	group.GET("/reverse", api.reverseGeocoding)
	group.GET("/tokenize", api.tokenize)
	group.GET("/layers", api.layers)
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// geocodeRequest model info
//
//	@Description	request untuk forward geocoding. lewat query string (GET) atau json body (POST).
type geocodeRequest struct {
	Query        string    `json:"query" validate:"required,max=256"`               // free text, "lon,lat", atau "layer.id".
	Limit        int       `json:"limit" validate:"omitempty,min=1,max=10"`         // jumlah hasil maksimum, default 5.
	Autocomplete *bool     `json:"autocomplete"`                                    // token terakhir boleh prefix, default true.
	Fuzzy        bool      `json:"fuzzy"`                                           // perbaiki typo token lewat vocabulary layer.
	Proximity    []float64 `json:"proximity" validate:"omitempty,len=2"`            // lon,lat bias lokasi.
	BBox         []float64 `json:"bbox" validate:"omitempty,len=4"`                 // minLon,minLat,maxLon,maxLat.
	Types        []string  `json:"types" validate:"omitempty,max=16,dive,required"` // layer yang boleh muncul di hasil.
	Language     string    `json:"language" validate:"omitempty,max=35"`            // kode bahasa BCP 47 untuk text hasil.
	LanguageMode string    `json:"language_mode" validate:"omitempty,oneof=strict"` // "strict": hanya feature yang punya nama dalam language.
}

// geocodeResponse model info
//
//	@Description	hasil geocoding, paling relevan dulu.
type geocodeResponse struct {
	Data []datastructure.Result `json:"data"`
}

func (req *geocodeRequest) fromQuery(r *http.Request) error {
	q := r.URL.Query()
	req.Query = q.Get("q")
	if req.Query == "" {
		req.Query = q.Get("query")
	}
	req.Language = q.Get("language")
	req.LanguageMode = q.Get("language_mode")

	var err error
	if v := q.Get("limit"); v != "" {
		if req.Limit, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("limit must be an integer")
		}
	}
	if v := q.Get("autocomplete"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("autocomplete must be a boolean")
		}
		req.Autocomplete = &b
	}
	if v := q.Get("fuzzy"); v != "" {
		if req.Fuzzy, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("fuzzy must be a boolean")
		}
	}
	if v := q.Get("proximity"); v != "" {
		if req.Proximity, err = parseFloats(v); err != nil {
			return fmt.Errorf("proximity: %w", err)
		}
	}
	if v := q.Get("bbox"); v != "" {
		if req.BBox, err = parseFloats(v); err != nil {
			return fmt.Errorf("bbox: %w", err)
		}
	}
	if v := q.Get("types"); v != "" {
		req.Types = strings.Split(v, ",")
	}
	return nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", p)
		}
		out = append(out, v)
	}
	return out, nil
}

var errCoordinateRange = errors.New("longitude must be within [-180, 180] and latitude within [-90, 90]")

func validLonLat(lon, lat float64) bool {
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

func (req *geocodeRequest) options() (geocoder.Options, error) {
	opts := geocoder.DefaultOptions()
	opts.Limit = req.Limit
	opts.Fuzzy = req.Fuzzy
	opts.Types = req.Types
	opts.Language = req.Language
	opts.LanguageMode = req.LanguageMode
	if err := opts.ValidateLanguage(); err != nil {
		return opts, err
	}
	if req.Autocomplete != nil {
		opts.Autocomplete = *req.Autocomplete
	}
	if len(req.Proximity) == 2 {
		if !validLonLat(req.Proximity[0], req.Proximity[1]) {
			return opts, fmt.Errorf("proximity: %w", errCoordinateRange)
		}
		opts.Proximity = &[2]float64{req.Proximity[0], req.Proximity[1]}
	}
	if len(req.BBox) == 4 {
		b := [4]float64{req.BBox[0], req.BBox[1], req.BBox[2], req.BBox[3]}
		if !validLonLat(b[0], b[1]) || !validLonLat(b[2], b[3]) {
			return opts, fmt.Errorf("bbox: %w", errCoordinateRange)
		}
		if b[0] > b[2] || b[1] > b[3] {
			return opts, errors.New("bbox: min corner must not exceed max corner")
		}
		opts.BBox = &b
	}
	return opts, nil
}

func (api *geocodeAPI) validateStruct(request interface{}) error {
	if err := api.validate.Struct(request); err != nil {
		vv := translateError(err, api.trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		return fmt.Errorf("validation error: %v", vvString)
	}
	return nil
}

// geocode godoc
// @Summary		forward geocoding. query free text, "lon,lat" (diteruskan ke reverse), atau "layer.id".
// @Description	forward geocoding. query free text, "lon,lat" (diteruskan ke reverse), atau "layer.id".
// @Tags			geocode
// @ID geocode
// @Param			q				query	string	false	"query text"
// @Param			limit			query	int		false	"max results (1-10)"
// @Param			autocomplete	query	bool	false	"prefix match last token"
// @Param			fuzzy			query	bool	false	"typo tolerant match"
// @Param			proximity		query	string	false	"lon,lat"
// @Param			bbox			query	string	false	"minLon,minLat,maxLon,maxLat"
// @Param			types			query	string	false	"comma separated layer names"
// @Param			language		query	string	false	"BCP 47 language code"
// @Param			language_mode	query	string	false	"strict"
// @Param			body			body	geocodeRequest	false	"POST body"
// @Accept			application/json
// @Produce		application/json
// @Router			/api/geocode [get]
// @Router			/api/geocode [post]
// @Success		200	{object}	geocodeResponse
// @Failure		400	{object}	errorResponse
// @Failure		404	{object}	errorResponse
// @Failure		500	{object}	errorResponse
func (api *geocodeAPI) geocode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request geocodeRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			api.BadRequestResponse(w, r, err)
			return
		}
	} else if err := request.fromQuery(r); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	if err := api.validateStruct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	opts, err := request.options()
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	results, err := api.geocodeService.Geocode(r.Context(), request.Query, opts)
	if err != nil {
		api.serviceErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": results}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

type reverseGeocodingRequest struct {
	Lat          *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon          *float64 `json:"lon" validate:"required,min=-180,max=180"`
	Types        []string `json:"types" validate:"omitempty,max=16,dive,required"`
	Language     string   `json:"language" validate:"omitempty,max=35"`
	LanguageMode string   `json:"language_mode" validate:"omitempty,oneof=strict"`
}

// reverseGeocoding godoc
// @Summary		reverse geocoding. context titik di semua layer, paling detail dulu.
// @Description	reverse geocoding. context titik di semua layer, paling detail dulu.
// @Tags			geocode
// @ID reverse-geocoding
// @Param			lon		query	number	true	"longitude"
// @Param			lat		query	number	true	"latitude"
// @Param			types	query	string	false	"comma separated layer names"
// @Param			language	query	string	false	"BCP 47 language code"
// @Param			language_mode	query	string	false	"strict"
// @Produce		application/json
// @Router			/api/reverse [get]
// @Success		200	{object}	geocodeResponse
// @Failure		400	{object}	errorResponse
// @Failure		500	{object}	errorResponse
func (api *geocodeAPI) reverseGeocoding(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request reverseGeocodingRequest
	q := r.URL.Query()
	for name, dst := range map[string]**float64{"lon": &request.Lon, "lat": &request.Lat} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			api.BadRequestResponse(w, r, fmt.Errorf("%s must be a number", name))
			return
		}
		*dst = &f
	}
	if v := q.Get("types"); v != "" {
		request.Types = strings.Split(v, ",")
	}
	request.Language = q.Get("language")
	request.LanguageMode = q.Get("language_mode")

	if err := api.validateStruct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	opts := geocoder.DefaultOptions()
	opts.Types = request.Types
	opts.Language = request.Language
	opts.LanguageMode = request.LanguageMode
	if err := opts.ValidateLanguage(); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	results, err := api.geocodeService.Reverse(r.Context(), *request.Lon, *request.Lat, opts)
	if err != nil {
		api.serviceErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": results}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

type tokenizeResponse struct {
	Data usecases.TokenizeResult `json:"data"`
}

// tokenize godoc
// @Summary		token dan term fingerprint sebuah query, untuk debug index.
// @Description	token dan term fingerprint sebuah query, untuk debug index.
// @Tags			debug
// @ID tokenize
// @Param			q	query	string	true	"query text"
// @Produce		application/json
// @Router			/api/tokenize [get]
// @Success		200	{object}	tokenizeResponse
// @Failure		400	{object}	errorResponse
func (api *geocodeAPI) tokenize(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		api.BadRequestResponse(w, r, errors.New("validation error: [q is a required field]"))
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": api.geocodeService.Tokenize(query)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// layers godoc
// @Summary		nama layer yang ter-load, dari paling kasar.
// @Description	nama layer yang ter-load, dari paling kasar.
// @Tags			debug
// @ID layers
// @Produce		application/json
// @Router			/api/layers [get]
// @Success		200	{object}	map[string][]string
func (api *geocodeAPI) layers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": api.geocodeService.Layers()}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}
