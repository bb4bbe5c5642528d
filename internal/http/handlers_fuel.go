package http

import (
	"net/http"
	"time"

	"dompet/internal/core"
	"dompet/internal/services"
)

type fuelLogResponse struct {
	ID                 int64     `json:"id"`
	VehicleType        string    `json:"vehicle_type"`
	FuelType           string    `json:"fuel_type"`
	InitialKM          float64   `json:"initial_km"`
	FinalKM            float64   `json:"final_km"`
	PricePerLiterCents int64     `json:"price_per_liter_cents"`
	Liters             float64   `json:"liters"`
	Distance           float64   `json:"distance_km"`
	TotalCostCents     int64     `json:"total_cost_cents"`
	KMPerLiter         float64   `json:"km_per_liter"`
	CreatedAt          time.Time `json:"created_at"`
}

func toFuelLogResponse(f core.FuelLog) fuelLogResponse {
	return fuelLogResponse{
		ID:                 f.ID,
		VehicleType:        f.VehicleType,
		FuelType:           f.FuelType,
		InitialKM:          f.InitialKM,
		FinalKM:            f.FinalKM,
		PricePerLiterCents: f.PricePerLiter.Cents,
		Liters:             f.Liters,
		Distance:           f.Distance(),
		TotalCostCents:     f.TotalCost().Cents,
		KMPerLiter:         f.KMPerLiter(),
		CreatedAt:          f.CreatedAt,
	}
}

type createFuelLogRequest struct {
	VehicleType   string  `json:"vehicle_type"`
	FuelType      string  `json:"fuel_type"`
	InitialKM     float64 `json:"initial_km"`
	FinalKM       float64 `json:"final_km"`
	PricePerLiter string  `json:"price_per_liter"`
	Liters        float64 `json:"liters"`
}

func (s *Server) handleCreateFuelLog(w http.ResponseWriter, r *http.Request) {
	var req createFuelLogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	cents, err := core.ParseDecimalToCents(req.PricePerLiter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.fuel.CreateFuelLog(r.Context(), services.CreateFuelLogInput{
		VehicleType:   sanitizeInput(req.VehicleType),
		FuelType:      sanitizeInput(req.FuelType),
		InitialKM:     req.InitialKM,
		FinalKM:       req.FinalKM,
		PricePerLiter: core.Money{Cents: cents},
		Liters:        req.Liters,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFuelLogResponse(created))
}

func (s *Server) handleListFuelLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.fuel.ListFuelLogs(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]fuelLogResponse, 0, len(logs))
	for _, f := range logs {
		out = append(out, toFuelLogResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteFuelLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := s.fuel.DeleteFuelLog(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
